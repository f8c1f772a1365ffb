package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func TestNewDebouncer(t *testing.T) {
	d := NewDebouncer()
	if d == nil {
		t.Fatal("NewDebouncer returned nil")
	}
	if d.window != StabilityWindow {
		t.Errorf("expected window %v, got %v", StabilityWindow, d.window)
	}
	if d.Seeded() {
		t.Error("new debouncer should not be seeded")
	}
}

func TestDebouncerFirstSampleSeeds(t *testing.T) {
	for _, raw := range []bool{false, true} {
		d := NewDebouncer()
		if got := d.Sample(raw, t0); got != raw {
			t.Errorf("first sample %v: expected %v, got %v", raw, raw, got)
		}
		if !d.Seeded() {
			t.Error("should be seeded after first sample")
		}
		// No spurious transition is recorded at the seed.
		if !d.lastChange.Equal(t0) {
			t.Errorf("expected lastChange %v, got %v", t0, d.lastChange)
		}
	}
}

func TestDebouncerAdoptsAfterWindow(t *testing.T) {
	d := NewDebouncer()
	d.Sample(false, t0)

	if got := d.Sample(true, t0.Add(ms(10))); got {
		t.Error("expected false immediately after change")
	}
	if got := d.Sample(true, t0.Add(ms(100))); got {
		t.Error("expected false 90ms after change")
	}
	// 110ms exactly equals the window: strict > keeps the old value.
	if got := d.Sample(true, t0.Add(ms(110))); got {
		t.Error("expected false when held for exactly the window")
	}
	if got := d.Sample(true, t0.Add(ms(111))); !got {
		t.Error("expected true once held for longer than the window")
	}
}

func TestDebouncerBoundaryIsStrict(t *testing.T) {
	d := NewDebouncer()
	d.Sample(true, t0)
	d.Sample(false, t0.Add(ms(50)))

	if got := d.Sample(false, t0.Add(ms(150))); !got {
		t.Error("held for exactly 100ms: expected stable to remain true")
	}
	if got := d.Sample(false, t0.Add(ms(151))); got {
		t.Error("held for 101ms: expected stable false")
	}
}

func TestDebouncerRejectsShortBursts(t *testing.T) {
	d := NewDebouncer()
	d.Sample(false, t0)

	// Flip every 60ms: no level is ever held longer than the window.
	raw := false
	for i := 1; i <= 20; i++ {
		raw = !raw
		if got := d.Sample(raw, t0.Add(ms(60*i))); got {
			t.Fatalf("flip %d: burst leaked through as true", i)
		}
	}
}

func TestDebouncerRevertResetsClock(t *testing.T) {
	d := NewDebouncer()
	d.Sample(false, t0)
	d.Sample(false, t0.Add(ms(500)))

	// Bounce to true and back to false: the revert restarts the clock too.
	d.Sample(true, t0.Add(ms(520)))
	d.Sample(false, t0.Add(ms(540)))

	// 80ms of true would not be enough even without the revert.
	d.Sample(true, t0.Add(ms(560)))
	if got := d.Sample(true, t0.Add(ms(660))); got {
		t.Error("expected false: true held for exactly 100ms")
	}
	if got := d.Sample(true, t0.Add(ms(680))); !got {
		t.Error("expected true: true held for 120ms")
	}
}

func TestDebouncerHoldsDuringNoise(t *testing.T) {
	d := NewDebouncer()
	d.Sample(true, t0)
	d.Sample(true, t0.Add(ms(200)))

	if got := d.Sample(false, t0.Add(ms(220))); !got {
		t.Error("expected previous stable true during noise")
	}
	if d.Stable() != true {
		t.Error("Stable() should report the held value")
	}
}

func TestDebouncerScenarioTwentyMsTicks(t *testing.T) {
	// [false]*3 then true, sampled every 20ms. The change lands at 60ms,
	// so the output flips on the first tick strictly more than 100ms later.
	raws := []bool{false, false, false, true, true, true, true, true, true, true, true}
	d := NewDebouncer()
	c := NewController()

	var flippedAt time.Duration = -1
	var intents []*Intent
	for i, raw := range raws {
		at := ms(20 * i)
		stable := d.Sample(raw, t0.Add(at))
		if stable && flippedAt < 0 {
			flippedAt = at
		}
		if in := c.Advance(stable, t0.Add(at)); in != nil {
			intents = append(intents, in)
		}
	}

	if flippedAt != ms(180) {
		t.Errorf("expected flip at 180ms, got %v", flippedAt)
	}
	if len(intents) != 1 {
		t.Fatalf("expected exactly 1 intent, got %d", len(intents))
	}
	if intents[0].Kind != IntentFirstAlert {
		t.Errorf("expected %s, got %s", IntentFirstAlert, intents[0].Kind)
	}
}
