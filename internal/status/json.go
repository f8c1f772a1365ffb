package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/leak-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Device        string       `json:"device"`
	State         string       `json:"state"`
	Ready         bool         `json:"ready"`
	Leak          *LeakJSON    `json:"leak,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LeakJSON describes the active leak episode.
type LeakJSON struct {
	Episode         string `json:"episode,omitempty"`
	Since           string `json:"since"`
	LastAlert       string `json:"last_alert"`
	DurationSeconds int64  `json:"duration_seconds"`
	Duration        string `json:"duration"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of intent counts.
type CountsJSON struct {
	Episodes     int `json:"episodes"`
	RepeatAlerts int `json:"repeat_alerts"`
	Recoveries   int `json:"recoveries"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	DebounceMs      int64  `json:"debounce_ms"`
	AlertIntervalMs int64  `json:"alert_interval_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	Webhook         bool   `json:"webhook"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Leak.State)
	if state == "" {
		state = string(logic.StateNormal)
	}

	inner := StatusInner{
		Device:        snap.Config.Device,
		State:         state,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Episodes:     snap.Leak.Counts.Episodes,
			RepeatAlerts: snap.Leak.Counts.RepeatAlerts,
			Recoveries:   snap.Leak.Counts.Recoveries,
		},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			DebounceMs:      snap.Config.DebounceMs,
			AlertIntervalMs: snap.Config.AlertIntervalMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			Webhook:         snap.Config.Webhook,
		},
	}

	if snap.Detected() {
		d := snap.LeakDuration()
		inner.Leak = &LeakJSON{
			Episode:         snap.Episode,
			Since:           snap.Leak.LeakStart.UTC().Format(time.RFC3339),
			LastAlert:       snap.Leak.LastAlert.UTC().Format(time.RFC3339),
			DurationSeconds: int64(d / time.Second),
			Duration:        logic.FormatDuration(d),
		}
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
