package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// tracked is one issue's full in-memory state: the aggregate itself, the
// signals/context it was run with, and its last Explanation (nil until the
// first completed cycle).
type tracked struct {
	issue           *models.IssueState
	signals         []models.Signal
	merchantContext models.MerchantContext
	explanation     *models.Explanation
}

// Registry is the orchestrator's own bookkeeping of every issue it has
// run: a superset of what pkg/api.IssueStore and pkg/api.ApprovalStore
// need, so cmd/core can hand the same *Registry to both. Approving a
// pending decision hands its action straight to the executor rather than
// replaying signals->decision through the Runner; rejecting marks the
// issue action_failed without ever calling the executor.
type Registry struct {
	mu       sync.RWMutex
	issues   map[string]*tracked
	runner   *Runner
	executor ActionExecutor
	audit    AuditRecorder
	now      func() time.Time
}

// NewRegistry builds a Registry whose Run drives issues through runner;
// approved actions go directly to executor.
func NewRegistry(runner *Runner, executor ActionExecutor, audit AuditRecorder) *Registry {
	return &Registry{
		issues:   make(map[string]*tracked),
		runner:   runner,
		executor: executor,
		audit:    audit,
		now:      time.Now,
	}
}

// Run drives issueID through the full pipeline via the Registry's Runner,
// recording the result whether the cycle completes, halts pending
// approval, or fails.
func (reg *Registry) Run(ctx context.Context, issueID string, signals []models.Signal, merchantContext models.MerchantContext) (*models.Explanation, error) {
	issue := models.NewIssueState(issueID, reg.now())
	reg.mu.Lock()
	reg.issues[issueID] = &tracked{issue: issue, signals: signals, merchantContext: merchantContext}
	reg.mu.Unlock()

	explanation, err := reg.runner.RunIssue(ctx, issue, signals, merchantContext)

	reg.mu.Lock()
	if t, ok := reg.issues[issueID]; ok {
		t.explanation = explanation
	}
	reg.mu.Unlock()

	return explanation, err
}

// List implements pkg/api.IssueStore, applying status/merchant_id filters
// and simple offset pagination ordered by issue_id for determinism.
func (reg *Registry) List(_ context.Context, filters map[string]string, page, pageSize int) ([]map[string]any, int, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var matched []*tracked
	for _, t := range reg.issues {
		if status := filters["status"]; status != "" && string(t.issue.Status) != status {
			continue
		}
		if merchantID := filters["merchant_id"]; merchantID != "" && t.merchantContext.MerchantID != merchantID {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].issue.IssueID < matched[j].issue.IssueID })

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := make([]map[string]any, 0, end-start)
	for _, t := range matched[start:end] {
		out = append(out, issueView(t))
	}
	return out, total, nil
}

// Get implements pkg/api.IssueStore.
func (reg *Registry) Get(_ context.Context, issueID string) (map[string]any, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	t, ok := reg.issues[issueID]
	if !ok {
		return nil, fmt.Errorf("issue not found: %s", issueID)
	}
	return issueView(t), nil
}

// ListPending implements pkg/api.ApprovalStore.
func (reg *Registry) ListPending(_ context.Context, merchantID, riskLevel string) ([]map[string]any, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var out []map[string]any
	for _, t := range reg.issues {
		if t.issue.Status != models.IssuePendingApproval || t.issue.Decision == nil {
			continue
		}
		if merchantID != "" && t.merchantContext.MerchantID != merchantID {
			continue
		}
		if riskLevel != "" && string(t.issue.Decision.RiskLevel) != riskLevel {
			continue
		}
		out = append(out, issueView(t))
	}
	return out, nil
}

// Approve implements pkg/api.ApprovalStore: it executes the pending
// decision's action and transitions the issue to its terminal state.
// decisionID is matched against the tracked issue's Decision.DecisionID.
func (reg *Registry) Approve(ctx context.Context, decisionID, operatorID string) error {
	t, err := reg.findPending(decisionID)
	if err != nil {
		return err
	}

	action := models.Action{
		ActionID:   fmt.Sprintf("act_%s_%d", t.issue.IssueID, reg.now().UnixNano()),
		IssueID:    t.issue.IssueID,
		ActionType: t.issue.Decision.ActionType,
		RiskLevel:  t.issue.Decision.RiskLevel,
		MerchantID: t.merchantContext.MerchantID,
		Parameters: t.issue.Decision.Parameters,
	}
	result, err := reg.executor.Execute(ctx, action, t.issue.IssueID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	t.issue.Actions = append(t.issue.Actions, result)
	nextStatus := models.IssueActionExecuted
	if !result.Success {
		nextStatus = models.IssueActionFailed
	}
	if terr := t.issue.TransitionTo(nextStatus, reg.now()); terr != nil {
		return terr
	}
	reg.recordApproval(ctx, t.issue.IssueID, decisionID, operatorID, true, "")
	return nil
}

// Reject implements pkg/api.ApprovalStore: the action never executes.
func (reg *Registry) Reject(ctx context.Context, decisionID, operatorID, feedback string) error {
	t, err := reg.findPending(decisionID)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if terr := t.issue.TransitionTo(models.IssueActionFailed, reg.now()); terr != nil {
		return terr
	}
	reg.recordApproval(ctx, t.issue.IssueID, decisionID, operatorID, false, feedback)
	return nil
}

func (reg *Registry) findPending(decisionID string) (*tracked, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, t := range reg.issues {
		if t.issue.Decision != nil && t.issue.Decision.DecisionID == decisionID && t.issue.Status == models.IssuePendingApproval {
			return t, nil
		}
	}
	return nil, fmt.Errorf("pending decision not found: %s", decisionID)
}

func (reg *Registry) recordApproval(ctx context.Context, issueID, decisionID, operatorID string, approved bool, feedback string) {
	if reg.audit == nil {
		return
	}
	eventType := "decision_rejected"
	if approved {
		eventType = "decision_approved"
	}
	_, _ = reg.audit.RecordEvent(ctx, issueID, eventType, operatorID,
		map[string]any{"decision_id": decisionID},
		map[string]any{"feedback": feedback}, feedback)
}

func issueView(t *tracked) map[string]any {
	view := map[string]any{
		"issue_id":    t.issue.IssueID,
		"status":      t.issue.Status,
		"signal_ids":  t.issue.SignalIDs,
		"pattern_ids": t.issue.PatternIDs,
		"created_at":  t.issue.CreatedAt,
		"updated_at":  t.issue.UpdatedAt,
		"merchant_id": t.merchantContext.MerchantID,
	}
	if t.issue.Analysis != nil {
		view["analysis"] = t.issue.Analysis
	}
	if t.issue.Decision != nil {
		view["decision"] = t.issue.Decision
	}
	if len(t.issue.Actions) > 0 {
		view["actions"] = t.issue.Actions
	}
	if t.explanation != nil {
		view["explanation"] = t.explanation
	}
	return view
}
