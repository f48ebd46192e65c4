// Package decision implements the Decision Engine + Risk Assessor: a
// deterministic category→action router plus a risk-factor-based approval
// gate, with Safe Mode overriding approval unconditionally when active.
package decision

import (
	"fmt"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// SafeModeChecker is satisfied by pkg/safemode; kept narrow so this package
// doesn't depend on the concrete manager.
type SafeModeChecker interface {
	IsActive() bool
}

// Engine routes a RootCauseAnalysis to a Decision and assesses its risk.
type Engine struct {
	safeMode SafeModeChecker
	now      func() time.Time
}

// NewEngine constructs an Engine. safeMode may be nil, in which case Safe
// Mode is treated as always inactive (useful for tests exercising routing
// in isolation).
func NewEngine(safeMode SafeModeChecker) *Engine {
	return &Engine{safeMode: safeMode, now: time.Now}
}

// Decide selects an action for analysis given ctx and assesses its risk.
// Safe Mode, when active, forces requires_approval to true regardless of
// the computed risk assessment's recommendation (§4.5's unconditional
// override).
func (e *Engine) Decide(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) (models.Decision, error) {
	d := e.route(analysis, ctx, issueID)

	risk := e.assessRisk(d, ctx)
	d.RiskLevel = risk.Level
	if e.safeModeActive() {
		d.RequiresApproval = true
	} else {
		d.RequiresApproval = risk.RequiresApproval
	}

	if err := d.Validate(); err != nil {
		return models.Decision{}, err
	}
	return d, nil
}

func (e *Engine) safeModeActive() bool {
	return e.safeMode != nil && e.safeMode.IsActive()
}

func (e *Engine) route(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	switch analysis.Category {
	case models.CategoryMigrationMisstep:
		return e.handleMigrationMisstep(analysis, ctx, issueID)
	case models.CategoryPlatformRegression:
		return e.handlePlatformRegression(analysis, ctx, issueID)
	case models.CategoryDocumentationGap:
		return e.handleDocumentationGap(analysis, ctx, issueID)
	case models.CategoryConfigError:
		return e.handleConfigError(analysis, ctx, issueID)
	default:
		return e.handleUnknownCategory(analysis, ctx, issueID)
	}
}

func (e *Engine) decisionID(issueID string) string {
	return fmt.Sprintf("dec_%s_%d", issueID, e.now().Unix())
}
