// Package logic contains pure business logic for leak detection and alert scheduling.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Timing constants. These are fixed at build time.
const (
	// StabilityWindow is how long a raw value must hold (strictly longer)
	// before the debounced output adopts it.
	StabilityWindow = 100 * time.Millisecond

	// AlertInterval is the spacing between repeat alerts while a leak persists,
	// measured from the previous alert.
	AlertInterval = 30 * time.Second

	// PollInterval is the default driver tick period.
	PollInterval = 50 * time.Millisecond
)

// State represents the stored leak lifecycle state.
type State string

const (
	StateNormal   State = "NORMAL"
	StateDetected State = "DETECTED"
)

// IntentKind identifies which notification should be sent.
type IntentKind string

const (
	IntentFirstAlert  IntentKind = "LEAK_DETECTED"
	IntentRepeatAlert IntentKind = "LEAK_ONGOING"
	IntentRecovery    IntentKind = "LEAK_RECOVERED"
)

// Intent is a transport-agnostic description of a notification to send.
type Intent struct {
	Kind IntentKind
	// Timestamp is the tick time at which the intent was produced.
	Timestamp time.Time
	// Since is the leak onset time.
	Since time.Time
	// Duration is the elapsed leak time (zero for a first alert).
	Duration time.Duration
}

// Counts tracks the number of each intent kind since startup.
type Counts struct {
	Episodes     int
	RepeatAlerts int
	Recoveries   int
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State             State
	LeakStart         time.Time // zero unless State == StateDetected
	LastAlert         time.Time // zero unless State == StateDetected
	FirstAlertPending bool
	Counts            Counts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
