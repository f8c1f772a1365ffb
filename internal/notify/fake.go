package notify

import "context"

// FakeNotifier records delivered messages for test assertions.
type FakeNotifier struct {
	// Messages contains every message that was delivered successfully.
	Messages []string

	// Attempts counts Deliver calls, including failed ones.
	Attempts int

	// DeliverError, if set, will be returned by Deliver.
	DeliverError error
}

// NewFakeNotifier creates a FakeNotifier.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Deliver records message.
func (f *FakeNotifier) Deliver(_ context.Context, message string) error {
	f.Attempts++
	if f.DeliverError != nil {
		return f.DeliverError
	}
	f.Messages = append(f.Messages, message)
	return nil
}
