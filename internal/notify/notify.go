// Package notify delivers outbound participant notifications. Delivery
// is best effort by design: the core mutates store state first and then
// notifies, so a failed send never leaves a state transition
// half-applied.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
)

// Sender delivers one rendered message to a participant contact. Real
// deployments plug in SMS/WhatsApp/email gateways; the core only
// depends on this interface.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
	Name() string
}

// Notifier dispatches messages through a Sender with bounded retries.
// Errors are logged and swallowed.
type Notifier struct {
	sender     Sender
	maxRetries uint64
}

// NewNotifier creates a Notifier around the given sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender, maxRetries: 3}
}

// Notify sends a message, retrying transient failures with exponential
// backoff. It never returns an error: notification failure must not
// abort the surrounding state transition.
func (n *Notifier) Notify(ctx context.Context, recipient, subject, body string) {
	if n == nil || n.sender == nil {
		return
	}

	backoff := retry.WithMaxRetries(n.maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := n.sender.Send(ctx, recipient, subject, body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Printf("notification via %s to %s failed: %v", n.sender.Name(), recipient, err)
	}
}

// LogSender is the default Sender: it writes notifications to the
// process log. Used in development and as a stand-in when no gateway is
// configured.
type LogSender struct{}

// Send logs the notification.
func (LogSender) Send(_ context.Context, recipient, subject, body string) error {
	log.Printf("notify %s: %s - %s", recipient, subject, body)
	return nil
}

// Name returns the sender identifier.
func (LogSender) Name() string { return "log" }
