// Package status provides a thread-safe status tracker for the leak-sensor daemon.
// It is read by HTTP handlers and heartbeat publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/leak-sensor/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Device          string
	PollMs          int64
	DebounceMs      int64
	AlertIntervalMs int64
	HeartbeatMs     int64
	Broker          string
	HTTPAddr        string
	Webhook         bool // whether a webhook URL is configured; the URL itself is a secret
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Leak          logic.Snapshot
	Ready         bool // debouncer has seen its first sample
	Episode       string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Detected reports whether a leak episode is active.
func (s Snapshot) Detected() bool {
	return s.Leak.State == logic.StateDetected
}

// LeakDuration returns how long the current leak has lasted, or zero.
func (s Snapshot) LeakDuration() time.Duration {
	if !s.Detected() {
		return 0
	}
	return s.Now.Sub(s.Leak.LeakStart)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Leak:      logic.Snapshot{State: logic.StateNormal},
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the controller state, debouncer readiness and current episode.
// Called from runLoop on every tick.
func (t *Tracker) Update(leak logic.Snapshot, ready bool, episode string) {
	t.mu.Lock()
	t.snap.Leak = leak
	t.snap.Ready = ready
	t.snap.Episode = episode
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
