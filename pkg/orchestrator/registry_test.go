package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/rootcause"
)

func newApprovalRequiredRegistry() (*Registry, *fakeExecutor, *fakeAudit) {
	detector := &fakeDetector{}
	analyzer := &fakeAnalyzer{outcome: rootcause.Ok(baseAnalysis())}
	engine := &fakeEngine{decision: models.Decision{
		ActionType: models.ActionTemporaryMitigation, RiskLevel: models.RiskHigh,
		Confidence: 0.9, EstimatedOutcome: "mitigated", RequiresApproval: true,
	}}
	executor := &fakeExecutor{result: models.ActionResult{Success: true}}
	audit := &fakeAudit{}
	runner := New(detector, analyzer, engine, executor, audit)
	return NewRegistry(runner, executor, audit), executor, audit
}

func TestRegistry_RunThenListAndGet(t *testing.T) {
	reg, _, _ := newApprovalRequiredRegistry()
	_, err := reg.Run(context.Background(), "issue_1", baseSignals(), models.MerchantContext{MerchantID: "m1"})
	require.NoError(t, err)

	items, total, err := reg.List(context.Background(), map[string]string{"merchant_id": "m1"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	view, err := reg.Get(context.Background(), "issue_1")
	require.NoError(t, err)
	assert.Equal(t, "issue_1", view["issue_id"])
}

func TestRegistry_ApproveExecutesActionAndTransitions(t *testing.T) {
	reg, executor, _ := newApprovalRequiredRegistry()
	_, err := reg.Run(context.Background(), "issue_2", baseSignals(), models.MerchantContext{MerchantID: "m1"})
	require.NoError(t, err)

	pending, err := reg.ListPending(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	decisionID := pending[0]["decision"].(*models.Decision).DecisionID

	executor.result = models.ActionResult{Success: true, ExecutedAt: time.Now()}
	require.NoError(t, reg.Approve(context.Background(), decisionID, "op_1"))

	view, err := reg.Get(context.Background(), "issue_2")
	require.NoError(t, err)
	assert.Equal(t, models.IssueActionExecuted, view["status"])
}

func TestRegistry_RejectMarksActionFailedWithoutExecuting(t *testing.T) {
	reg, executor, _ := newApprovalRequiredRegistry()
	_, err := reg.Run(context.Background(), "issue_3", baseSignals(), models.MerchantContext{MerchantID: "m1"})
	require.NoError(t, err)

	pending, err := reg.ListPending(context.Background(), "", "")
	require.NoError(t, err)
	decisionID := pending[0]["decision"].(*models.Decision).DecisionID

	require.NoError(t, reg.Reject(context.Background(), decisionID, "op_1", "too risky"))

	view, err := reg.Get(context.Background(), "issue_3")
	require.NoError(t, err)
	assert.Equal(t, models.IssueActionFailed, view["status"])
	assert.Equal(t, 0, executor.calls())
}

func TestRegistry_ApproveUnknownDecisionReturnsError(t *testing.T) {
	reg, _, _ := newApprovalRequiredRegistry()
	err := reg.Approve(context.Background(), "not_a_decision", "op_1")
	assert.Error(t, err)
}
