package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/leak-sensor/internal/gpio"
	"github.com/sweeney/leak-sensor/internal/logic"
	"github.com/sweeney/leak-sensor/internal/mqtt"
	"github.com/sweeney/leak-sensor/internal/notify"
	"github.com/sweeney/leak-sensor/internal/status"
	"github.com/sweeney/leak-sensor/internal/web"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// webhookSink collects message contents posted to a test webhook.
type webhookSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *webhookSink) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req notify.WebhookRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("webhook body: %v", err)
		}
		s.mu.Lock()
		s.messages = append(s.messages, req.Text.Content)
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"errcode":0,"errmsg":"ok"}`)
	}
}

func (s *webhookSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// pipeline mirrors the daemon loop with real logic and delivery.
type pipeline struct {
	reader     gpio.Reader
	debouncer  *logic.Debouncer
	controller *logic.Controller
	notifier   notify.Notifier
	publisher  *mqtt.FakePublisher
	indicator  *gpio.FakeIndicator
	tracker    *status.Tracker
	episode    int
}

func newPipeline(samples []bool, notifier notify.Notifier) *pipeline {
	return &pipeline{
		reader:     gpio.NewFakeReader(samples),
		debouncer:  logic.NewDebouncer(),
		controller: logic.NewController(),
		notifier:   notifier,
		publisher:  &mqtt.FakePublisher{Connected: true},
		indicator:  gpio.NewFakeIndicator(),
		tracker:    status.NewTracker(startTime, status.Config{Device: "kitchen"}),
	}
}

func (p *pipeline) tick(t *testing.T, now time.Time) {
	t.Helper()
	raw, err := p.reader.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	stable := p.debouncer.Sample(raw, now)
	if in := p.controller.Advance(stable, now); in != nil {
		if in.Kind == logic.IntentFirstAlert {
			p.episode++
		}
		if p.notifier != nil {
			_ = p.notifier.Deliver(context.Background(), notify.Render(*in))
		}
		_ = p.publisher.Publish(mqtt.Event{Intent: *in, Episode: fmt.Sprintf("ep-%d", p.episode)})
	}

	detected := p.controller.State() == logic.StateDetected
	if err := p.indicator.SetIntensity(gpio.IndicatorLevel(p.publisher.Connected, detected)); err != nil {
		t.Fatalf("indicator: %v", err)
	}
	p.tracker.Update(p.controller.Snapshot(), p.debouncer.Seeded(), "")
}

func (p *pipeline) run(t *testing.T, n int, step time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		p.tick(t, startTime.Add(time.Duration(i)*step))
	}
}

func seq(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// TestIntegrationLeakEpisode runs a one-minute leak through the full path: probe,
// debounce, controller, webhook over HTTP and the event stream.
func TestIntegrationLeakEpisode(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(t))
	defer srv.Close()

	// One tick per second. Dry at 0s, leak from 1s (stable at 2s), dry from
	// 67s (stable at 68s).
	samples := append(append(seq(false, 1), seq(true, 66)...), seq(false, 3)...)
	p := newPipeline(samples, notify.NewWebhook(srv.URL))
	p.run(t, len(samples), time.Second)

	want := []string{
		"🚨 Water leak detected!\nLeak found, act immediately!",
		"🚨 Water leak ongoing!\nLeak duration: 30s\nPlease act soon!",
		"🚨 Water leak ongoing!\nLeak duration: 1m0s\nPlease act soon!",
		"✅ Water leak recovered!\nTotal leak duration: 1m6s",
	}
	got := sink.all()
	if len(got) != len(want) {
		t.Fatalf("webhook messages: got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if len(p.publisher.Events) != 4 {
		t.Fatalf("expected 4 published events, got %d", len(p.publisher.Events))
	}
	var last mqtt.Payload
	if err := json.Unmarshal(p.publisher.Payloads[3], &last); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if last.Leak.Event != "LEAK_RECOVERED" || last.Leak.DurationSeconds != 66 || last.Leak.Duration != "1m6s" {
		t.Errorf("unexpected recovery payload: %+v", last.Leak)
	}
	if last.Leak.Since != "2026-01-01T12:00:02Z" {
		t.Errorf("since: got %q", last.Leak.Since)
	}

	counts := p.controller.Snapshot().Counts
	if counts.Episodes != 1 || counts.RepeatAlerts != 2 || counts.Recoveries != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

// TestIntegrationWebhookDownKeepsSchedule verifies delivery failures do not
// alter the alert cadence.
func TestIntegrationWebhookDownKeepsSchedule(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	samples := append(seq(false, 1), seq(true, 70)...)
	p := newPipeline(samples, notify.NewWebhook(url))
	p.run(t, len(samples), time.Second)

	if got := len(p.publisher.Events); got != 3 {
		t.Errorf("expected first + 2 repeats regardless of webhook, got %d", got)
	}
	if p.controller.State() != logic.StateDetected {
		t.Error("controller should still be DETECTED")
	}
}

func TestIntegrationIndicatorFollowsEpisode(t *testing.T) {
	samples := append(append(seq(false, 2), seq(true, 4)...), seq(false, 4)...)
	p := newPipeline(samples, nil)
	p.run(t, len(samples), time.Second)

	// One sample per tick: LOW while dry, FULL from the tick the leak is
	// adopted, LOW again after recovery.
	want := []uint8{10, 10, 10, 255, 255, 255, 255, 10, 10, 10}
	if len(p.indicator.Levels) != len(want) {
		t.Fatalf("levels: got %v, want %v", p.indicator.Levels, want)
	}
	for i := range want {
		if p.indicator.Levels[i] != want[i] {
			t.Errorf("tick %d: got %d, want %d", i, p.indicator.Levels[i], want[i])
		}
	}
}

func TestIntegrationBounceRejection(t *testing.T) {
	// Alternating every 50 ms never holds long enough.
	var samples []bool
	for i := 0; i < 40; i++ {
		samples = append(samples, i%2 == 1)
	}
	p := newPipeline(samples, nil)
	p.run(t, len(samples), 50*time.Millisecond)

	if len(p.publisher.Events) != 0 {
		t.Errorf("expected no events from chatter, got %d", len(p.publisher.Events))
	}
}

// TestIntegrationStatusPage serves the tracker fed by the pipeline over HTTP.
func TestIntegrationStatusPage(t *testing.T) {
	samples := append(seq(false, 1), seq(true, 10)...)
	p := newPipeline(samples, nil)
	p.run(t, len(samples), time.Second)

	ts := httptest.NewServer(web.New(context.Background(), ":0", p.tracker).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sj.Status.State != "DETECTED" {
		t.Errorf("state: got %q, want DETECTED", sj.Status.State)
	}
	if sj.Status.Leak == nil || sj.Status.Leak.Since != "2026-01-01T12:00:02Z" {
		t.Errorf("unexpected leak block: %+v", sj.Status.Leak)
	}
	if sj.Status.Counts.Episodes != 1 {
		t.Errorf("episodes: got %d", sj.Status.Counts.Episodes)
	}
}
