package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/audit"
	"github.com/migrationguard/core/pkg/configmgr"
	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/notification"
	"github.com/migrationguard/core/pkg/ticketing"
)

type fixedSafeMode struct {
	active bool
	reason string
}

func (f fixedSafeMode) IsActive() bool          { return f.active }
func (f fixedSafeMode) ActivationReason() string { return f.reason }

type memRateCounter struct {
	counts map[string]int64
}

func newMemRateCounter() *memRateCounter { return &memRateCounter{counts: make(map[string]int64)} }

func (c *memRateCounter) key(merchantID string, actionType models.ActionType) string {
	return merchantID + "|" + string(actionType)
}

func (c *memRateCounter) IncrRateLimit(_ context.Context, merchantID string, actionType models.ActionType, _ time.Duration) (int64, error) {
	k := c.key(merchantID, actionType)
	c.counts[k]++
	return c.counts[k], nil
}

func (c *memRateCounter) RateLimitCount(_ context.Context, merchantID string, actionType models.ActionType, _ time.Duration) (int64, error) {
	return c.counts[c.key(merchantID, actionType)], nil
}

func newTestExecutor(t *testing.T, safeModeActive bool, limit int) (*Executor, *ticketing.MemClient) {
	t.Helper()
	tickets := ticketing.NewMemClient()
	registry := ticketing.NewRegistry(map[string]ticketing.Client{"zendesk": tickets})
	notifier := notification.NewDispatcher()
	configManager := configmgr.NewManager(configmgr.NewMemStore())
	auditManager := audit.NewManager(audit.NewMemStore())
	rateLimiter := NewRateLimiter(newMemRateCounter(), time.Minute, limit, map[models.ActionType]int{}, 10)
	safeMode := fixedSafeMode{active: safeModeActive, reason: "manual trip"}

	e := New(registry, notifier, configManager, auditManager, rateLimiter, safeMode, time.Millisecond, 2*time.Millisecond)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	return e, tickets
}

func TestExecute_SafeModeBlocksAction(t *testing.T) {
	e, _ := newTestExecutor(t, true, 100)
	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionSupportGuidance,
		Parameters: map[string]any{"merchant_id": "m1", "message": "hi"},
	}

	result, err := e.Execute(context.Background(), action, "issue-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "safe mode")
}

func TestExecute_SupportGuidanceCreatesTicket(t *testing.T) {
	e, tickets := newTestExecutor(t, false, 100)
	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionSupportGuidance,
		Parameters: map[string]any{"merchant_id": "m1", "message": "please update your webhook"},
	}

	result, err := e.Execute(context.Background(), action, "issue-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Result["ticket_id"])
	_ = tickets

	entries, err := e.auditTrail.GetAuditTrail(context.Background(), "issue-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "action_support_guidance", entries[0].EventType)
}

func TestExecute_RateLimitRejectsFourthAction(t *testing.T) {
	e, _ := newTestExecutor(t, false, 3)
	action := func() models.Action {
		return models.Action{
			ActionID:   "a1",
			ActionType: models.ActionSupportGuidance,
			Parameters: map[string]any{"merchant_id": "m1", "message": "hi"},
		}
	}

	for i := 0; i < 3; i++ {
		result, err := e.Execute(context.Background(), action(), "")
		require.NoError(t, err)
		assert.True(t, result.Success)
	}

	result, err := e.Execute(context.Background(), action(), "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "Rate limit exceeded")
}

func TestExecute_MissingParametersFailsAndEscalates(t *testing.T) {
	e, tickets := newTestExecutor(t, false, 100)
	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionSupportGuidance,
		Parameters: map[string]any{}, // missing merchant_id/message
	}

	result, err := e.Execute(context.Background(), action, "issue-2")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "missing required parameters")
	_ = tickets

	entries, err := e.auditTrail.GetAuditTrail(context.Background(), "issue-2", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Reasoning, "failed after retries")
}

func TestExecute_SyntheticEscalationNeverReEscalates(t *testing.T) {
	e, _ := newTestExecutor(t, false, 100)
	escalation := models.Action{
		ActionID:   "esc-1",
		ActionType: models.ActionSupportGuidance, // will fail: missing params
		Synthetic:  true,
		Parameters: map[string]any{},
	}

	result, err := e.Execute(context.Background(), escalation, "")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecute_TemporaryMitigationAppliesConfigAndRecordsRollback(t *testing.T) {
	e, _ := newTestExecutor(t, false, 100)
	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionTemporaryMitigation,
		Parameters: map[string]any{
			"resource_type":  "webhook_config",
			"resource_id":    "merchant-1",
			"resource":       "webhook_url",
			"current_config": map[string]any{"url": "https://old.example.com"},
			"config_changes": map[string]any{"url": "https://new.example.com"},
			"reason":         "auto-fix",
		},
	}

	result, err := e.Execute(context.Background(), action, "issue-3")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RollbackData["rollback_config"])
}

type stubChannel struct{ fail bool }

func (s stubChannel) Kind() string { return "email" }
func (s stubChannel) Send(_ context.Context, _ notification.Recipient, _ notification.Message) error {
	if s.fail {
		return assert.AnError
	}
	return nil
}

func TestExecute_ProactiveCommunicationAggregatesPerRecipientStatus(t *testing.T) {
	e, _ := newTestExecutor(t, false, 100)
	e.notifier = notification.NewDispatcher(stubChannel{})

	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionProactiveCommunication,
		Parameters: map[string]any{
			"merchant_ids": []any{"m1", "m2"},
			"message":      "we found an issue",
		},
	}

	result, err := e.Execute(context.Background(), action, "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Result["notified"])
	assert.Equal(t, 2, result.Result["total"])
}

func TestExecute_TemporaryMitigationRejectsUnknownFixResource(t *testing.T) {
	e, _ := newTestExecutor(t, false, 100)
	action := models.Action{
		ActionID:   "a1",
		ActionType: models.ActionTemporaryMitigation,
		Parameters: map[string]any{
			"resource_type":  "webhook_config",
			"resource_id":    "merchant-1",
			"resource":       "retry_count_backup",
			"current_config": map[string]any{"url": "https://old.example.com"},
			"config_changes": map[string]any{"url": "https://new.example.com"},
		},
	}

	result, err := e.Execute(context.Background(), action, "")
	require.NoError(t, err)
	assert.False(t, result.Success)
}
