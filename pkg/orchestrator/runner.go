// Package orchestrator drives one issue through the observe, detect,
// reason, decide, act pipeline, recording a reasoning-chain entry per
// stage and failing the issue closed on any stage error. Generalized from
// the teacher's sub-agent dispatch loop into a sequential stage runner:
// where the teacher fans a tool-call loop out across goroutines, this
// Runner walks a fixed stage order for a single issue, threading context
// for cancellation throughout.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/rootcause"
)

// PatternDetector is the narrow slice of pkg/patterndetect.Detector this
// package needs.
type PatternDetector interface {
	AnalyzeSignals(signals []models.Signal) []models.Pattern
}

// RootCauseAnalyzer is the narrow slice of pkg/rootcause.Analyzer this
// package needs.
type RootCauseAnalyzer interface {
	Analyze(ctx context.Context, signals []models.Signal, patterns []models.Pattern, merchantContext models.MerchantContext) (rootcause.Outcome, error)
}

// DecisionEngine is the narrow slice of pkg/decision.Engine this package
// needs.
type DecisionEngine interface {
	Decide(analysis models.RootCauseAnalysis, merchantContext models.MerchantContext, issueID string) (models.Decision, error)
}

// ActionExecutor is the narrow slice of pkg/executor.Executor this package
// needs. The executor records its own audit entry for the action it runs.
type ActionExecutor interface {
	Execute(ctx context.Context, action models.Action, issueID string) (models.ActionResult, error)
}

// AuditRecorder is the narrow slice of pkg/audit.Manager this package
// needs for stage-transition and failure events (action outcomes are
// recorded by ActionExecutor itself).
type AuditRecorder interface {
	RecordEvent(ctx context.Context, issueID, eventType, actor string, inputs, outputs map[string]any, reasoning string) (string, error)
}

// Runner walks a single IssueState through every pipeline stage.
type Runner struct {
	detector PatternDetector
	analyzer RootCauseAnalyzer
	engine   DecisionEngine
	executor ActionExecutor
	audit    AuditRecorder
	now      func() time.Time
}

// New builds a Runner from its collaborators.
func New(detector PatternDetector, analyzer RootCauseAnalyzer, engine DecisionEngine, executor ActionExecutor, audit AuditRecorder) *Runner {
	return &Runner{
		detector: detector,
		analyzer: analyzer,
		engine:   engine,
		executor: executor,
		audit:    audit,
		now:      time.Now,
	}
}

// RunIssue drives issue through signals -> patterns -> root_cause ->
// decision -> (act or pending_approval), mutating issue in place and
// returning the cycle's Explanation. Any stage error transitions issue to
// failed, records the failure, and returns the error without running
// later stages.
func (r *Runner) RunIssue(ctx context.Context, issue *models.IssueState, signals []models.Signal, merchantContext models.MerchantContext) (*models.Explanation, error) {
	now := r.now()
	var steps []models.ReasoningStep

	for _, s := range signals {
		issue.SignalIDs = append(issue.SignalIDs, s.SignalID)
	}
	if err := issue.TransitionTo(models.IssueObserving, now); err != nil {
		return nil, r.fail(ctx, issue, "observe", err)
	}
	steps = append(steps, buildSignalStep(signals, 1.0, now))

	select {
	case <-ctx.Done():
		return nil, r.fail(ctx, issue, "detect", ctx.Err())
	default:
	}

	patterns := r.detector.AnalyzeSignals(signals)
	for _, p := range patterns {
		issue.PatternIDs = append(issue.PatternIDs, p.PatternID)
	}
	if err := issue.TransitionTo(models.IssuePatternDetected, r.now()); err != nil {
		return nil, r.fail(ctx, issue, "detect", err)
	}
	steps = append(steps, buildPatternStep(patterns, meanPatternConfidence(patterns), r.now()))

	outcome, err := r.analyzer.Analyze(ctx, signals, patterns, merchantContext)
	if err != nil {
		return nil, r.fail(ctx, issue, "reason", err)
	}
	if outcome.UsedFallback() {
		r.recordEvent(ctx, issue.IssueID, "root_cause_fallback", "system",
			map[string]any{"reason": outcome.FallbackReason}, nil,
			fmt.Sprintf("LLM path unavailable, used rule-based analyzer: %s", outcome.FallbackReason))
	}
	issue.Analysis = &outcome.Analysis
	if err := issue.TransitionTo(models.IssueAnalyzed, r.now()); err != nil {
		return nil, r.fail(ctx, issue, "reason", err)
	}
	steps = append(steps, buildRootCauseStep(outcome.Analysis, r.now()))

	decision, err := r.engine.Decide(outcome.Analysis, merchantContext, issue.IssueID)
	if err != nil {
		return nil, r.fail(ctx, issue, "decide", err)
	}
	issue.Decision = &decision
	if err := issue.TransitionTo(models.IssueDecided, r.now()); err != nil {
		return nil, r.fail(ctx, issue, "decide", err)
	}
	steps = append(steps, buildDecisionStep(decision, r.now()))

	explanation := assembleExplanation(issue.IssueID, steps, outcome.Analysis.AlternativesConsidered, decision.ActionType, r.now())

	if decision.RequiresApproval {
		if err := issue.TransitionTo(models.IssuePendingApproval, r.now()); err != nil {
			return nil, r.fail(ctx, issue, "act", err)
		}
		r.recordEvent(ctx, issue.IssueID, "pending_approval", "system",
			map[string]any{"action_type": decision.ActionType}, nil, RenderExplanation(explanation))
		return &explanation, nil
	}

	action := models.Action{
		ActionID:   fmt.Sprintf("act_%s_%d", issue.IssueID, r.now().UnixNano()),
		IssueID:    issue.IssueID,
		ActionType: decision.ActionType,
		RiskLevel:  decision.RiskLevel,
		MerchantID: merchantContext.MerchantID,
		Parameters: decision.Parameters,
	}
	result, err := r.executor.Execute(ctx, action, issue.IssueID)
	if err != nil {
		return nil, r.fail(ctx, issue, "act", err)
	}
	issue.Actions = append(issue.Actions, result)

	nextStatus := models.IssueActionExecuted
	if !result.Success {
		nextStatus = models.IssueActionFailed
	}
	if err := issue.TransitionTo(nextStatus, r.now()); err != nil {
		return nil, r.fail(ctx, issue, "act", err)
	}

	return &explanation, nil
}

func (r *Runner) fail(ctx context.Context, issue *models.IssueState, stage string, cause error) error {
	_ = issue.TransitionTo(models.IssueFailed, r.now())
	r.recordEvent(ctx, issue.IssueID, "stage_failed", "system",
		map[string]any{"stage": stage}, map[string]any{"error": cause.Error()},
		fmt.Sprintf("%s stage failed: %s", stage, cause.Error()))
	return fmt.Errorf("orchestrator: %s stage: %w", stage, cause)
}

func (r *Runner) recordEvent(ctx context.Context, issueID, eventType, actor string, inputs, outputs map[string]any, reasoning string) {
	if r.audit == nil || issueID == "" {
		return
	}
	if _, err := r.audit.RecordEvent(ctx, issueID, eventType, actor, inputs, outputs, reasoning); err != nil {
		_ = err
	}
}

func meanPatternConfidence(patterns []models.Pattern) float64 {
	if len(patterns) == 0 {
		return 1.0
	}
	var sum float64
	for _, p := range patterns {
		sum += p.Confidence
	}
	return sum / float64(len(patterns))
}
