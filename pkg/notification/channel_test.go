package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	kind    string
	fail    bool
	sent    []Recipient
}

func (f *fakeChannel) Kind() string { return f.kind }

func (f *fakeChannel) Send(_ context.Context, recipient Recipient, _ Message) error {
	if f.fail {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, recipient)
	return nil
}

func TestDispatcherAggregatesPerRecipientResults(t *testing.T) {
	slack := &fakeChannel{kind: "slack"}
	email := &fakeChannel{kind: "email", fail: true}
	d := NewDispatcher(slack, email)

	results := d.Send(context.Background(), []Recipient{
		{Channel: "slack", Address: "C123"},
		{Channel: "email", Address: "ops@example.com"},
		{Channel: "sms", Address: "+15555550100"},
	}, Message{Title: "Safe Mode activated", Body: "confidence drift exceeded threshold"})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Error, "no channel registered")

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "success iff >= 1 recipient succeeded")
}

type fakeSender struct {
	called bool
	to     string
}

func (f *fakeSender) SendEmail(_ context.Context, to, _, _ string) error {
	f.called = true
	f.to = to
	return nil
}

func TestEmailChannelDelegatesToSender(t *testing.T) {
	sender := &fakeSender{}
	ch := NewEmailChannel(sender)
	err := ch.Send(context.Background(), Recipient{Channel: "email", Address: "merchant@example.com"}, Message{Title: "x", Body: "y"})
	require.NoError(t, err)
	assert.True(t, sender.called)
	assert.Equal(t, "merchant@example.com", sender.to)
}
