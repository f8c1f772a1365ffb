package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/leak-sensor/internal/gpio"
	"github.com/sweeney/leak-sensor/internal/logger"
	"github.com/sweeney/leak-sensor/internal/logic"
	"github.com/sweeney/leak-sensor/internal/mqtt"
	"github.com/sweeney/leak-sensor/internal/notify"
	"github.com/sweeney/leak-sensor/internal/status"
)

// loop wires the sensor through the debouncer and controller to the outputs.
// Only tracker, mqttStatus and notifier may be nil.
type loop struct {
	device     string
	reader     gpio.Reader
	indicator  gpio.Indicator
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	notifier   notify.Notifier
	tracker    *status.Tracker
	heartbeat  time.Duration
	newEpisode func() string
	now        func() time.Time

	debouncer  *logic.Debouncer
	controller *logic.Controller
	beat       *logic.Heartbeat
	episode    string
	networkUp  bool
	level      uint8
	levelSet   bool
}

// startup announces the daemon: a retained STARTUP event and the connected
// message on the webhook.
func (l *loop) startup(ctx context.Context) {
	net := l.updateNetwork()

	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "STARTUP",
		Retained:  true,
	}
	if snap, ok := l.snapshot(); ok {
		event.RawPayload = status.FormatStatusEvent(snap, "STARTUP", "")
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		logger.WarnKV(ctx, "failed to publish startup event", "error", err)
	} else {
		logger.Info(ctx, "published startup event")
	}

	var ssid, ip string
	if net != nil {
		ssid, ip = net.SSID, net.IP
	}
	l.deliver(ctx, notify.RenderConnected(l.device, ssid, ip))
}

// run processes ticks until a signal arrives or ctx is cancelled.
func (l *loop) run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	l.debouncer = logic.NewDebouncer()
	l.controller = logic.NewController()
	l.beat = logic.NewHeartbeat(l.now())

	for {
		select {
		case s := <-sig:
			name := signalName(s)
			logger.InfoKV(ctx, "shutting down", "signal", name)
			l.shutdown(ctx, name)
			return nil

		case <-ctx.Done():
			logger.Info(ctx, "stopping")
			l.shutdown(ctx, "CANCELLED")
			return nil

		case <-tick:
			l.step(ctx)
		}
	}
}

// step runs one sample through the pipeline.
func (l *loop) step(ctx context.Context) {
	t := l.now()
	raw, err := l.reader.Read()
	if err != nil {
		// Skip the tick; the debouncer never sees a made-up value.
		logger.WarnKV(ctx, "sensor read error", "error", err)
		return
	}

	stable := l.debouncer.Sample(raw, t)
	if intent := l.controller.Advance(stable, t); intent != nil {
		l.dispatch(ctx, *intent)
	}

	l.setIndicator(ctx, gpio.IndicatorLevel(l.connected(), l.controller.State() == logic.StateDetected))
	l.refresh()

	if hb := l.beat.Check(t, l.heartbeat, l.controller.Snapshot().Counts); hb != nil {
		logger.InfoKV(ctx, "heartbeat",
			"uptime", hb.Uptime,
			"episodes", hb.Counts.Episodes,
			"repeat_alerts", hb.Counts.RepeatAlerts,
			"recoveries", hb.Counts.Recoveries,
		)

		event := mqtt.SystemEvent{
			Timestamp: hb.Timestamp,
			Event:     "HEARTBEAT",
			Retained:  true,
		}
		l.updateNetwork()
		if snap, ok := l.snapshot(); ok {
			event.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(event); err != nil {
			logger.WarnKV(ctx, "heartbeat publish error", "error", err)
		}
	}
}

// dispatch sends one intent to people and to the event stream. Failures are
// logged and never feed back into the controller.
func (l *loop) dispatch(ctx context.Context, intent logic.Intent) {
	if intent.Kind == logic.IntentFirstAlert {
		l.episode = l.newEpisode()
	}
	ctx = logger.WithKV(ctx, "episode", l.episode)

	logger.InfoKV(ctx, "leak intent",
		"kind", intent.Kind,
		"since", intent.Since.Format(time.RFC3339),
		"duration", logic.FormatDuration(intent.Duration),
	)

	l.deliver(ctx, notify.Render(intent))

	if err := l.publisher.Publish(mqtt.Event{Intent: intent, Episode: l.episode}); err != nil {
		logger.WarnKV(ctx, "publish error", "error", err)
	}

	if intent.Kind == logic.IntentRecovery {
		l.episode = ""
	}
}

func (l *loop) deliver(ctx context.Context, message string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Deliver(ctx, message); err != nil {
		logger.WarnKV(ctx, "webhook delivery failed", "error", err)
	}
}

// updateNetwork rereads the pi-helper network facts.
func (l *loop) updateNetwork() *status.NetworkInfo {
	net := readNetworkInfo()
	l.networkUp = net != nil && net.Status == networkConnected
	if l.tracker != nil && net != nil {
		l.tracker.SetNetwork(net)
	}
	return net
}

// connected reports whether the host has a usable link: pi-helper says the
// network is up, or the MQTT broker is reachable.
func (l *loop) connected() bool {
	if l.networkUp {
		return true
	}
	return l.mqttStatus != nil && l.mqttStatus.IsConnected()
}

// setIndicator writes level when it differs from the last attempted one. A
// failed write is not retried until the level changes again.
func (l *loop) setIndicator(ctx context.Context, level uint8) {
	if l.levelSet && level == l.level {
		return
	}
	l.level = level
	l.levelSet = true
	if err := l.indicator.SetIntensity(level); err != nil {
		logger.WarnKV(ctx, "indicator error", "level", level, "error", err)
	}
}

// refresh pushes loop state into the tracker for HTTP consumers.
func (l *loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.controller.Snapshot(), l.debouncer.Seeded(), l.episode)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) snapshot() (status.Snapshot, bool) {
	if l.tracker == nil {
		return status.Snapshot{}, false
	}
	if l.controller != nil {
		l.refresh()
	} else if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	return l.tracker.Snapshot(), true
}

func (l *loop) shutdown(ctx context.Context, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if snap, ok := l.snapshot(); ok {
		event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", reason)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		logger.WarnKV(ctx, "failed to publish shutdown event", "error", err)
	} else {
		logger.Info(ctx, "published shutdown event")
	}

	l.levelSet = false
	l.setIndicator(ctx, gpio.LevelOff)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
