// Package notify renders leak intents as human-readable messages and
// delivers them to a chat webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sweeney/leak-sensor/internal/logic"
)

// Notifier delivers a text message. Delivery is fire-and-forget: callers log
// failures and move on.
type Notifier interface {
	Deliver(ctx context.Context, message string) error
}

// Delivery errors. Returned errors wrap one of these.
var (
	// ErrUnreachable means the request never got a response.
	ErrUnreachable = errors.New("webhook unreachable")
	// ErrRejected means the endpoint answered but refused the payload.
	ErrRejected = errors.New("webhook rejected payload")
)

// Render turns an intent into the message sent to people.
func Render(intent logic.Intent) string {
	switch intent.Kind {
	case logic.IntentFirstAlert:
		return "🚨 Water leak detected!\nLeak found, act immediately!"
	case logic.IntentRepeatAlert:
		return fmt.Sprintf("🚨 Water leak ongoing!\nLeak duration: %s\nPlease act soon!",
			logic.FormatDuration(intent.Duration))
	case logic.IntentRecovery:
		return fmt.Sprintf("✅ Water leak recovered!\nTotal leak duration: %s",
			logic.FormatDuration(intent.Duration))
	default:
		return string(intent.Kind)
	}
}

// RenderConnected builds the startup message. ssid and ip may be empty.
func RenderConnected(device, ssid, ip string) string {
	var b strings.Builder
	b.WriteString("🔌 ")
	b.WriteString(device)
	b.WriteString(" connected")
	if ssid != "" {
		b.WriteString(": ")
		b.WriteString(ssid)
	}
	if ip != "" {
		b.WriteString("\nIP: ")
		b.WriteString(ip)
	}
	return b.String()
}
