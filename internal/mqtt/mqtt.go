// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/leak-sensor/internal/logic"
)

// Topic is the MQTT topic for leak events.
const Topic = "home/leak/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/leak/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a leak event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a leak intent tagged with the episode it belongs to.
type Event struct {
	Intent  logic.Intent
	Episode string // shared by the first alert, repeats and recovery of one leak
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Leak LeakPayload `json:"leak"`
}

// LeakPayload contains the leak event details.
type LeakPayload struct {
	Timestamp       string `json:"timestamp"`
	Event           string `json:"event"`
	Episode         string `json:"episode,omitempty"`
	Since           string `json:"since"`
	DurationSeconds int64  `json:"duration_seconds"`
	Duration        string `json:"duration"`
}

// FormatPayload creates the JSON payload for a leak event.
func FormatPayload(event Event) ([]byte, error) {
	in := event.Intent
	payload := Payload{
		Leak: LeakPayload{
			Timestamp:       in.Timestamp.UTC().Format(time.RFC3339),
			Event:           string(in.Kind),
			Episode:         event.Episode,
			Since:           in.Since.UTC().Format(time.RFC3339),
			DurationSeconds: int64(in.Duration / time.Second),
			Duration:        logic.FormatDuration(in.Duration),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards event.
func (NopPublisher) Publish(Event) error { return nil }

// PublishSystem discards event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }
