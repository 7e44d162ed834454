package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
	"envmonitor-cloud/internal/observability/metrics"
)

// Channel delivers a rendered alert message.
type Channel interface {
	Send(ctx context.Context, subject, body string) error
}

// EmailNotifier delivers alert events over a channel, best-effort: send
// failures are logged and counted, never returned.
type EmailNotifier struct {
	channel Channel
	logger  *log.Logger
	timeout time.Duration
}

// Option configures the notifier.
type Option func(*EmailNotifier)

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(n *EmailNotifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// NewEmailNotifier constructs an email notifier.
func NewEmailNotifier(channel Channel, logger *log.Logger, opts ...Option) (*EmailNotifier, error) {
	if channel == nil {
		return nil, errors.New("email notifier: nil channel")
	}
	if logger == nil {
		logger = log.Default()
	}
	n := &EmailNotifier{
		channel: channel,
		logger:  logger,
		timeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements application.AlertNotifier.
func (n *EmailNotifier) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if n == nil || n.channel == nil {
		return
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	subject := fmt.Sprintf("%s Alert", event.Sensor)
	if err := n.channel.Send(ctx, subject, event.Message); err != nil {
		metrics.IncEmailNotification(metrics.ResultError)
		n.logger.Printf("alert email send failed: sensor=%s err=%v", event.Sensor, err)
		return
	}
	metrics.IncEmailNotification(metrics.ResultSuccess)
}
