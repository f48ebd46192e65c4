package notification

import (
	"context"
	"fmt"
	"log/slog"
)

// EmailChannel satisfies Channel for email-addressed recipients. It stops
// at building the message and handing it to a Sender — the transport
// (SMTP relay, a provider API) is deployment-specific and out of the
// core's scope, matching §4.14's "EmailChannel stub satisfying the same
// interface for multi-recipient/multi-channel fan-out."
type EmailChannel struct {
	sender Sender
	logger *slog.Logger
}

// Sender delivers a fully-rendered email. Implementations live outside
// this package (an SMTP client, a transactional-email API client).
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NewEmailChannel wraps sender as a notification Channel.
func NewEmailChannel(sender Sender) *EmailChannel {
	return &EmailChannel{sender: sender, logger: slog.Default().With("component", "notification-email")}
}

// Kind identifies this channel to the Dispatcher.
func (c *EmailChannel) Kind() string { return "email" }

// Send renders msg as a plain-text email body and hands it to the Sender.
func (c *EmailChannel) Send(ctx context.Context, recipient Recipient, msg Message) error {
	body := msg.Body
	if msg.URL != "" {
		body = fmt.Sprintf("%s\n\n%s", body, msg.URL)
	}
	if err := c.sender.SendEmail(ctx, recipient.Address, msg.Title, body); err != nil {
		c.logger.Error("email delivery failed", "to", recipient.Address, "error", err)
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}
