package logic

import "time"

// Debouncer turns a noisy raw sample stream into a stable boolean.
//
// The first call to Sample seeds the debouncer with that raw value, so the
// first returned value always equals the first raw sample. After that, the
// output only changes once the raw input has been unchanged for strictly
// longer than the window. Any raw transition, including a revert to the
// current stable value, restarts the clock.
type Debouncer struct {
	window     time.Duration
	seeded     bool
	lastRaw    bool
	lastChange time.Time
	stable     bool
}

// NewDebouncer creates a debouncer using StabilityWindow.
func NewDebouncer() *Debouncer {
	return &Debouncer{window: StabilityWindow}
}

// Sample feeds one raw reading taken at now and returns the stable value.
func (d *Debouncer) Sample(raw bool, now time.Time) bool {
	if !d.seeded {
		d.seeded = true
		d.lastRaw = raw
		d.lastChange = now
		d.stable = raw
		return d.stable
	}

	if raw != d.lastRaw {
		d.lastRaw = raw
		d.lastChange = now
	}

	if now.Sub(d.lastChange) > d.window {
		d.stable = raw
	}

	return d.stable
}

// Stable returns the current debounced value without sampling.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// Seeded reports whether the debouncer has seen its first sample.
func (d *Debouncer) Seeded() bool {
	return d.seeded
}
