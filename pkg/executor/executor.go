// Package executor implements the Action Executor: pre-execution safe-mode
// and rate-limit checks, retrying transient failures with exponential
// backoff, dispatching to per-action-type handlers, and recording every
// execution (success or failure) in the audit trail. Grounded on
// action_executor.py.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/migrationguard/core/pkg/audit"
	"github.com/migrationguard/core/pkg/configmgr"
	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/notification"
	"github.com/migrationguard/core/pkg/ticketing"
)

// SafeModeChecker is the narrow interface the Executor consults before
// running any action, mirroring pkg/decision.SafeModeChecker.
type SafeModeChecker interface {
	IsActive() bool
	ActivationReason() string
}

// Executor is the entry point for running a Decision's resulting Action.
type Executor struct {
	tickets   *ticketing.Registry
	notifier  *notification.Dispatcher
	config    *configmgr.Manager
	auditTrail *audit.Manager
	rateLimit *RateLimiter
	safeMode  SafeModeChecker

	retryBase time.Duration
	retryMax  time.Duration
	now       func() time.Time
}

// New builds an Executor from its collaborators.
func New(tickets *ticketing.Registry, notifier *notification.Dispatcher, config *configmgr.Manager, auditTrail *audit.Manager, rateLimit *RateLimiter, safeMode SafeModeChecker, retryBase, retryMax time.Duration) *Executor {
	return &Executor{
		tickets:    tickets,
		notifier:   notifier,
		config:     config,
		auditTrail: auditTrail,
		rateLimit:  rateLimit,
		safeMode:   safeMode,
		retryBase:  retryBase,
		retryMax:   retryMax,
		now:        time.Now,
	}
}

// Execute runs action, enforcing safe mode and rate limits first, retrying
// transient handler failures, and recording the outcome in the audit trail
// for issueID (if non-empty). On exhausted retries it raises a synthetic
// engineering_escalation action (without retry, so it cannot itself
// re-escalate) and still returns the original failure as the result.
func (e *Executor) Execute(ctx context.Context, action models.Action, issueID string) (models.ActionResult, error) {
	if e.safeMode.IsActive() {
		result := models.ActionResult{
			ActionID:     action.ActionID,
			Success:      false,
			ErrorMessage: "safe mode active - action queued for human approval",
			ExecutedAt:   e.now(),
		}
		e.recordAudit(ctx, issueID, action, result, fmt.Sprintf("safe mode active: %s", e.safeMode.ActivationReason()))
		return result, nil
	}

	merchantID := paramStringOr(action.Parameters, "merchant_id", "unknown")
	allowed, count, limit, err := e.rateLimit.Check(ctx, merchantID, action.ActionType)
	if err != nil {
		return models.ActionResult{}, err
	}
	if !allowed {
		result := models.ActionResult{
			ActionID:     action.ActionID,
			Success:      false,
			ErrorMessage: fmt.Sprintf("Rate limit exceeded: %d/%d actions per minute", count, limit),
			ExecutedAt:   e.now(),
		}
		e.recordAudit(ctx, issueID, action, result, "rate limit exceeded")
		return result, nil
	}

	if flagged, count, err := e.rateLimit.FlagExcessiveActions(ctx, merchantID, action.ActionType); err == nil && flagged {
		// Advisory only; the action still proceeds. Surfaced only by this
		// log line; the audit entry does not mention it.
		slog.Warn("excessive actions flagged", "merchant_id", merchantID, "action_type", action.ActionType, "count", count)
	}

	result, execErr := withRetry(ctx, e.retryBase, e.retryMax, func(ctx context.Context) (models.ActionResult, error) {
		return e.route(ctx, action)
	})

	if execErr != nil {
		failure := models.ActionResult{
			ActionID:     action.ActionID,
			Success:      false,
			ErrorMessage: execErr.Error(),
			ExecutedAt:   e.now(),
		}
		if !action.Synthetic {
			e.escalateFailedAction(ctx, action, execErr.Error())
		}
		e.recordAudit(ctx, issueID, action, failure, fmt.Sprintf("failed after retries: %s", execErr.Error()))
		return failure, nil
	}

	e.recordAudit(ctx, issueID, action, result, "")
	return result, nil
}

func (e *Executor) recordAudit(ctx context.Context, issueID string, action models.Action, result models.ActionResult, reasoning string) {
	if issueID == "" || e.auditTrail == nil {
		return
	}
	if _, err := e.auditTrail.RecordAction(ctx, issueID, action, result, reasoning); err != nil {
		// Audit failures never block the caller from seeing the execution
		// result, matching action_executor.py's try/except around
		// audit_trail.record_action.
		_ = err
	}
}

// escalateFailedAction raises a synthetic engineering_escalation for a
// failed action, executed directly (not through Execute) so it cannot
// recurse into another retry/escalate cycle.
func (e *Executor) escalateFailedAction(ctx context.Context, failedAction models.Action, errMessage string) {
	escalation := models.Action{
		ActionID:   uuid.NewString(),
		ActionType: models.ActionEngineeringEscalation,
		RiskLevel:  models.RiskHigh,
		Synthetic:  true,
		Parameters: map[string]any{
			"issue_id": fmt.Sprintf("failed_action_%s", failedAction.ActionID),
			"root_cause": map[string]any{
				"category":   "action_execution_failure",
				"confidence": 1.0,
				"reasoning":  fmt.Sprintf("Action %s failed after retries", failedAction.ActionType),
				"evidence":   []string{errMessage},
			},
			"merchant_id":      paramStringOr(failedAction.Parameters, "merchant_id", "unknown"),
			"priority":         "urgent",
			"failed_action_id": failedAction.ActionID,
		},
	}
	if _, err := e.executeEscalation(ctx, escalation); err != nil {
		_ = err // best-effort; a failed escalation must not block reporting the original failure
	}
}
