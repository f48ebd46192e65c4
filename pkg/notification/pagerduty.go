package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// PagerDutyChannel delivers Messages as PagerDuty Events API v2 "trigger"
// events, grounded on alert_manager.py's _send_pagerduty_alert and on the
// plain net/http texture of pkg/runbook/github.go.
type PagerDutyChannel struct {
	routingKey string
	endpoint   string
	client     *http.Client
	logger     *slog.Logger
}

// NewPagerDutyChannel builds a channel that triggers events under
// routingKey, the PagerDuty integration key for the target service.
func NewPagerDutyChannel(routingKey string) *PagerDutyChannel {
	return &PagerDutyChannel{
		routingKey: routingKey,
		endpoint:   "https://events.pagerduty.com/v2/enqueue",
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("component", "notification-pagerduty"),
	}
}

// Kind identifies this channel to the Dispatcher.
func (c *PagerDutyChannel) Kind() string { return "pagerduty" }

type pagerDutyEvent struct {
	RoutingKey  string               `json:"routing_key"`
	EventAction string               `json:"event_action"`
	DedupKey    string               `json:"dedup_key"`
	Payload     pagerDutyEventDetail `json:"payload"`
}

type pagerDutyEventDetail struct {
	Summary       string `json:"summary"`
	Severity      string `json:"severity"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"`
	CustomDetails any    `json:"custom_details,omitempty"`
}

// Send triggers a PagerDuty event. recipient.Address is used as the
// dedup_key suffix so repeated triggers for the same condition coalesce
// into one incident.
func (c *PagerDutyChannel) Send(ctx context.Context, recipient Recipient, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	event := pagerDutyEvent{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		DedupKey:    fmt.Sprintf("migrationguard:%s", recipient.Address),
		Payload: pagerDutyEventDetail{
			Summary:   fmt.Sprintf("%s: %s", msg.Title, msg.Body),
			Severity:  "critical",
			Source:    "migrationguard-ai",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("pagerduty: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pagerduty: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("pagerduty delivery failed", "error", err)
		return fmt.Errorf("pagerduty: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("pagerduty: unexpected status %d", resp.StatusCode)
	}
	return nil
}
