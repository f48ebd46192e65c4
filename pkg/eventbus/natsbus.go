package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSBus is the JetStream-backed Event Bus implementation. Streams are
// created idempotently on first use, mirroring the teacher's idempotent
// schema bootstrap rather than requiring an out-of-band provisioning step.
type NATSBus struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewNATSBus connects to the given NATS URL and wraps it in a JetStream
// context. Reconnection is handled by the nats.go client itself
// (nats.ReconnectWait/nats.MaxReconnects options), unlike the teacher's
// hand-rolled pgx LISTEN reconnect loop — the library already owns that
// concern for this transport.
func NewNATSBus(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url,
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("event bus disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("event bus reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event bus: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	return &NATSBus{conn: conn, js: js}, nil
}

func streamNameForTopic(topic string) string {
	switch topic {
	case TopicSignalsNormalized:
		return "SIGNALS"
	case TopicPatternsDetected:
		return "PATTERNS"
	default:
		return "EVENTS"
	}
}

func (b *NATSBus) ensureStream(ctx context.Context, topic string) (jetstream.Stream, error) {
	name := streamNameForTopic(topic)
	stream, err := b.js.Stream(ctx, name)
	if err == nil {
		return stream, nil
	}
	return b.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{topic + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
}

// Publish writes record to topic with key used as the subject suffix for
// partition-like affinity (so all records for the same merchant/pattern land
// on the same subject ordering).
func (b *NATSBus) Publish(ctx context.Context, topic, key string, record []byte) error {
	if _, err := b.ensureStream(ctx, topic); err != nil {
		return fmt.Errorf("event bus publish: %w", err)
	}
	subject := topic + "." + key
	if _, err := b.js.Publish(ctx, subject, record); err != nil {
		return fmt.Errorf("event bus publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe creates (or reuses) a durable consumer named group on topic's
// stream and dispatches each delivered message to handler on its own
// goroutine-per-consume-loop, consistent with "one worker task, no
// cross-task sharing" (§5).
func (b *NATSBus) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	stream, err := b.ensureStream(ctx, topic)
	if err != nil {
		return fmt.Errorf("event bus subscribe: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       group,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: topic + ".>",
	})
	if err != nil {
		return fmt.Errorf("event bus consumer %s: %w", group, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		subject := msg.Subject()
		key := subject[len(topic)+1:]
		if err := handler(ctx, key, msg.Data()); err != nil {
			slog.Error("event bus handler failed, leaving for redelivery",
				"topic", topic, "group", group, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("event bus consume %s: %w", group, err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()
	return nil
}

// Close closes the underlying NATS connection without draining it first.
func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
