package safemode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/notification"
)

type fakeCooldownStore struct {
	acquired map[string]bool
}

func newFakeCooldownStore() *fakeCooldownStore {
	return &fakeCooldownStore{acquired: make(map[string]bool)}
}

func (f *fakeCooldownStore) AcquireCooldown(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.acquired[key] {
		return false, nil
	}
	f.acquired[key] = true
	return true, nil
}

type fakeAlertChannel struct {
	kind string
	sent int
}

func (f *fakeAlertChannel) Kind() string { return f.kind }
func (f *fakeAlertChannel) Send(_ context.Context, _ notification.Recipient, _ notification.Message) error {
	f.sent++
	return nil
}

func TestAlertManager_SendAlertRespectsCooldown(t *testing.T) {
	channel := &fakeAlertChannel{kind: "slack"}
	dispatcher := notification.NewDispatcher(channel)
	cooldowns := newFakeCooldownStore()
	recipients := map[string][]notification.Recipient{
		"safe_mode_activated": {{Channel: "slack", Address: "C1"}},
	}
	am := NewAlertManager(dispatcher, cooldowns, recipients)

	sent, err := am.SendAlert(context.Background(), "safe_mode_activated", map[string]any{"reason": "critical_error"}, false)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, channel.sent)

	sent, err = am.SendAlert(context.Background(), "safe_mode_activated", map[string]any{"reason": "critical_error"}, false)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 1, channel.sent, "second call within cooldown must not dispatch again")
}

func TestAlertManager_OverrideCooldownBypassesSuppression(t *testing.T) {
	channel := &fakeAlertChannel{kind: "slack"}
	dispatcher := notification.NewDispatcher(channel)
	cooldowns := newFakeCooldownStore()
	recipients := map[string][]notification.Recipient{
		"critical_error": {{Channel: "slack", Address: "C1"}},
	}
	am := NewAlertManager(dispatcher, cooldowns, recipients)

	_, err := am.SendAlert(context.Background(), "critical_error", map[string]any{"error_type": "x", "error_message": "y"}, false)
	require.NoError(t, err)

	sent, err := am.SendAlert(context.Background(), "critical_error", map[string]any{"error_type": "x", "error_message": "y"}, true)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, channel.sent)
}

func TestAlertManager_UnknownRuleIsNoOp(t *testing.T) {
	dispatcher := notification.NewDispatcher()
	am := NewAlertManager(dispatcher, newFakeCooldownStore(), nil)

	sent, err := am.SendAlert(context.Background(), "not_a_rule", nil, false)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestAlertManager_RuleWithNoRecipientsIsNoOp(t *testing.T) {
	dispatcher := notification.NewDispatcher()
	am := NewAlertManager(dispatcher, newFakeCooldownStore(), nil)

	sent, err := am.SendAlert(context.Background(), "high_latency", map[string]any{"p95_latency": 150000}, false)
	require.NoError(t, err)
	assert.False(t, sent)
}
