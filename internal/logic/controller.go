package logic

import "time"

// Controller tracks the leak lifecycle and decides when to notify.
type Controller struct {
	alertInterval time.Duration

	// leaking is the last stable signal seen, tracked separately from the
	// debouncer so edges are detected exactly once.
	leaking           bool
	state             State
	leakStart         time.Time
	lastAlert         time.Time
	firstAlertPending bool
	counts            Counts
}

// NewController creates a controller in the NORMAL state.
func NewController() *Controller {
	return &Controller{
		alertInterval:     AlertInterval,
		state:             StateNormal,
		firstAlertPending: true,
	}
}

// Advance consumes one stable sample and returns at most one intent.
// An edge tick never also produces a repeat alert.
func (c *Controller) Advance(leak bool, now time.Time) *Intent {
	if leak != c.leaking {
		c.leaking = leak
		if leak {
			return c.begin(now)
		}
		return c.recover(now)
	}

	if c.state != StateDetected {
		return nil
	}

	if now.Sub(c.lastAlert) < c.alertInterval {
		return nil
	}

	c.lastAlert = now
	c.firstAlertPending = false
	c.counts.RepeatAlerts++
	return &Intent{
		Kind:      IntentRepeatAlert,
		Timestamp: now,
		Since:     c.leakStart,
		Duration:  now.Sub(c.leakStart),
	}
}

func (c *Controller) begin(now time.Time) *Intent {
	c.state = StateDetected
	c.leakStart = now
	c.lastAlert = now
	c.firstAlertPending = true
	c.counts.Episodes++
	return &Intent{
		Kind:      IntentFirstAlert,
		Timestamp: now,
		Since:     now,
	}
}

func (c *Controller) recover(now time.Time) *Intent {
	intent := &Intent{
		Kind:      IntentRecovery,
		Timestamp: now,
		Since:     c.leakStart,
		Duration:  now.Sub(c.leakStart),
	}

	// Recovered is only the intent tag; the stored state folds back to NORMAL.
	c.state = StateNormal
	c.leakStart = time.Time{}
	c.lastAlert = time.Time{}
	c.firstAlertPending = true
	c.counts.Recoveries++
	return intent
}

// State returns the stored lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// LeakStart returns the onset of the current leak, if one is active.
func (c *Controller) LeakStart() (time.Time, bool) {
	if c.state != StateDetected {
		return time.Time{}, false
	}
	return c.leakStart, true
}

// Snapshot returns a copy of the controller state for status consumers.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:             c.state,
		LeakStart:         c.leakStart,
		LastAlert:         c.lastAlert,
		FirstAlertPending: c.firstAlertPending,
		Counts:            c.counts,
	}
}
