// Package notify renders fulfilled orders into human-readable messages
// and delivers them to the staff chat.
package notify

import "context"

// Notifier delivers one text message to the configured destination.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NotifierFunc adapts ordinary functions to Notifier.
type NotifierFunc func(ctx context.Context, text string) error

// Send invokes the wrapped function.
func (f NotifierFunc) Send(ctx context.Context, text string) error {
	return f(ctx, text)
}
