package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabledWithZeroInterval(t *testing.T) {
	h := NewHeartbeat(t0)
	if hb := h.Check(t0.Add(time.Hour), 0, Counts{}); hb != nil {
		t.Error("expected nil heartbeat when interval is 0")
	}
	if hb := h.Check(t0.Add(time.Hour), -time.Minute, Counts{}); hb != nil {
		t.Error("expected nil heartbeat when interval is negative")
	}
}

func TestHeartbeatBeforeInterval(t *testing.T) {
	h := NewHeartbeat(t0)
	if hb := h.Check(t0.Add(14*time.Minute), 15*time.Minute, Counts{}); hb != nil {
		t.Error("expected nil heartbeat before interval")
	}
}

func TestHeartbeatAtInterval(t *testing.T) {
	h := NewHeartbeat(t0)
	counts := Counts{Episodes: 2, RepeatAlerts: 5, Recoveries: 1}

	hb := h.Check(t0.Add(15*time.Minute), 15*time.Minute, counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
	if hb.Counts != counts {
		t.Errorf("expected counts %+v, got %+v", counts, hb.Counts)
	}
	if !hb.Timestamp.Equal(t0.Add(15 * time.Minute)) {
		t.Errorf("unexpected timestamp %v", hb.Timestamp)
	}
}

func TestHeartbeatUpdatesLastTime(t *testing.T) {
	h := NewHeartbeat(t0)
	interval := 15 * time.Minute

	if hb := h.Check(t0.Add(16*time.Minute), interval, Counts{}); hb == nil {
		t.Fatal("expected first heartbeat")
	}
	if hb := h.Check(t0.Add(30*time.Minute), interval, Counts{}); hb != nil {
		t.Error("expected nil: only 14m since last heartbeat")
	}
	hb := h.Check(t0.Add(31*time.Minute), interval, Counts{})
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 31*time.Minute {
		t.Errorf("uptime should be measured from start, got %v", hb.Uptime)
	}
}
