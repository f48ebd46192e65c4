package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
)

func newTestManager() *Manager {
	m := NewManager(NewMemStore())
	tick := time.Unix(1700000000, 0)
	m.now = func() time.Time {
		t := tick
		tick = tick.Add(time.Second)
		return t
	}
	return m
}

func TestRecordAction_ChainsHashes(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	action := models.Action{ActionID: "a1", ActionType: models.ActionSupportGuidance, RiskLevel: models.RiskLow}
	result := models.ActionResult{ActionID: "a1", Success: true, ExecutedAt: time.Unix(1700000000, 0)}

	id1, err := m.RecordAction(ctx, "issue-1", action, result, "first action")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := m.RecordAction(ctx, "issue-1", action, result, "second action")
	require.NoError(t, err)

	entries, err := m.GetAuditTrail(ctx, "issue-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].PreviousHash)
	assert.Equal(t, entries[0].Hash, entries[1].PreviousHash)
	assert.NotEqual(t, entries[0].Hash, entries[1].Hash)
	assert.Equal(t, id1, entries[0].AuditID)
	assert.Equal(t, id2, entries[1].AuditID)
}

func TestRecordAction_DefaultsEmptyReasoning(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	action := models.Action{ActionID: "a1", ActionType: models.ActionTemporaryMitigation, RiskLevel: models.RiskMedium}
	result := models.ActionResult{ActionID: "a1", Success: true, ExecutedAt: time.Unix(1700000000, 0)}

	_, err := m.RecordAction(ctx, "issue-2", action, result, "")
	require.NoError(t, err)

	entries, err := m.GetAuditTrail(ctx, "issue-2", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Reasoning, "temporary_mitigation")
}

func TestVerifyChainIntegrity_DetectsTamperedEntry(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	action := models.Action{ActionID: "a1", ActionType: models.ActionSupportGuidance, RiskLevel: models.RiskLow}
	result := models.ActionResult{ActionID: "a1", Success: true, ExecutedAt: time.Unix(1700000000, 0)}

	_, err := m.RecordAction(ctx, "issue-3", action, result, "first")
	require.NoError(t, err)
	_, err = m.RecordAction(ctx, "issue-3", action, result, "second")
	require.NoError(t, err)

	ok, brokenID, err := m.VerifyChainIntegrity(ctx, "issue-3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, brokenID)

	store := m.store.(*MemStore)
	entries := store.entries["issue-3"]
	entries[0].Outputs = map[string]any{"tampered": true}

	ok, brokenID, err = m.VerifyChainIntegrity(ctx, "issue-3")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, brokenID, entries[0].AuditID)
}

func TestVerifyChainIntegrity_EmptyIssueIsValid(t *testing.T) {
	m := newTestManager()
	ok, reason, err := m.VerifyChainIntegrity(context.Background(), "no-such-issue")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestRecordEvent_IndependentPerIssueChains(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.RecordEvent(ctx, "issue-a", "stage_transition", "orchestrator",
		map[string]any{"from": "new"}, map[string]any{"to": "observing"}, "entered observing")
	require.NoError(t, err)
	_, err = m.RecordEvent(ctx, "issue-b", "stage_transition", "orchestrator",
		map[string]any{"from": "new"}, map[string]any{"to": "observing"}, "entered observing")
	require.NoError(t, err)

	entriesA, err := m.GetAuditTrail(ctx, "issue-a", 0)
	require.NoError(t, err)
	entriesB, err := m.GetAuditTrail(ctx, "issue-b", 0)
	require.NoError(t, err)

	require.Len(t, entriesA, 1)
	require.Len(t, entriesB, 1)
	assert.Empty(t, entriesA[0].PreviousHash)
	assert.Empty(t, entriesB[0].PreviousHash)
}

func TestComputeHash_DeterministicRegardlessOfMapConstructionOrder(t *testing.T) {
	f1 := models.HashableAuditFields{
		Timestamp: "2026-01-01T00:00:00Z", IssueID: "i1", EventType: "e", Actor: "system",
		Inputs: map[string]any{"a": 1, "b": 2}, PreviousHash: "",
	}
	f2 := models.HashableAuditFields{
		Timestamp: "2026-01-01T00:00:00Z", IssueID: "i1", EventType: "e", Actor: "system",
		Inputs: map[string]any{"b": 2, "a": 1}, PreviousHash: "",
	}
	h1, err := computeHash(f1)
	require.NoError(t, err)
	h2, err := computeHash(f2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
