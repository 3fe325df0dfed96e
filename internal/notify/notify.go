// Package notify is the delivery boundary for start-date notifications.
// The engine only ever talks to the Notifier interface; what a message looks
// like on the wire is the adapter's business.
package notify

import "context"

// Notifier delivers a text notification to a recipient.
type Notifier interface {
	Send(ctx context.Context, recipient int64, text string) error
}

// Noop discards notifications. Used when delivery is not configured.
type Noop struct{}

func (Noop) Send(context.Context, int64, string) error { return nil }
