package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackChannel delivers Messages as Slack Block Kit posts, grounded on the
// teacher's pkg/slack/client.go. Unlike the teacher (one hardcoded channel
// per process), each Send targets the channel named by the Recipient,
// matching the multi-recipient fan-out this core needs.
type SlackChannel struct {
	api     *goslack.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewSlackChannel builds a channel backed by the given bot token.
func NewSlackChannel(token string) *SlackChannel {
	return &SlackChannel{
		api:     goslack.New(token),
		timeout: 10 * time.Second,
		logger:  slog.Default().With("component", "notification-slack"),
	}
}

// Kind identifies this channel to the Dispatcher.
func (c *SlackChannel) Kind() string { return "slack" }

// Send posts msg to recipient.Address (a Slack channel ID).
func (c *SlackChannel) Send(ctx context.Context, recipient Recipient, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	blocks := buildBlocks(msg)
	_, _, err := c.api.PostMessageContext(ctx, recipient.Address, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		c.logger.Error("slack delivery failed", "channel", recipient.Address, "error", err)
		return fmt.Errorf("slack chat.postMessage failed: %w", err)
	}
	return nil
}

func buildBlocks(msg Message) []goslack.Block {
	text := fmt.Sprintf("*%s*\n%s", msg.Title, msg.Body)
	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
	if msg.URL != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Details", false, false))
		btn.URL = msg.URL
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}
	return blocks
}
