// Package notification delivers the proactive_communication action type
// (§4.6) and Safe Mode/operator alerts (§9.1) to one or more recipient
// channels, generalized from the teacher's pkg/slack (a single hardcoded
// Slack channel) to the multi-channel fan-out §4.6 describes.
package notification

import "context"

// Recipient names one delivery target: a channel kind plus its address
// (a Slack channel ID, an email address, ...).
type Recipient struct {
	Channel string // "slack", "email"
	Address string
}

// Message is the channel-agnostic payload. Channel implementations render
// it to their own wire format (Slack Block Kit, an email body, ...).
type Message struct {
	Title string
	Body  string
	URL   string // optional deep link (dashboard, ticket, ...)
}

// Channel delivers a Message to one recipient. Implementations are
// fail-open from the caller's perspective: Send returning an error only
// marks that recipient's delivery as failed, it never panics or blocks the
// caller beyond its own timeout.
type Channel interface {
	Kind() string
	Send(ctx context.Context, recipient Recipient, msg Message) error
}

// RecipientResult records one recipient's delivery outcome, feeding the
// `{notified, total, per_recipient_status}` aggregate §4.6 requires of the
// proactive_communication handler.
type RecipientResult struct {
	Recipient Recipient
	Success   bool
	Error     string
}

// Dispatcher fans a Message out to every recipient through the channel
// named by each Recipient.Channel, aggregating per-recipient results.
type Dispatcher struct {
	channels map[string]Channel
}

// NewDispatcher registers channels by their Kind().
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{channels: make(map[string]Channel, len(channels))}
	for _, c := range channels {
		d.channels[c.Kind()] = c
	}
	return d
}

// Send delivers msg to every recipient, one per registered channel.
// Returns one result per recipient, in input order; callers count the
// successes and compute "success iff >= 1 succeeded" themselves per §4.6.
func (d *Dispatcher) Send(ctx context.Context, recipients []Recipient, msg Message) []RecipientResult {
	results := make([]RecipientResult, len(recipients))
	for i, r := range recipients {
		ch, ok := d.channels[r.Channel]
		if !ok {
			results[i] = RecipientResult{Recipient: r, Success: false, Error: "no channel registered for " + r.Channel}
			continue
		}
		if err := ch.Send(ctx, r, msg); err != nil {
			results[i] = RecipientResult{Recipient: r, Success: false, Error: err.Error()}
			continue
		}
		results[i] = RecipientResult{Recipient: r, Success: true}
	}
	return results
}
