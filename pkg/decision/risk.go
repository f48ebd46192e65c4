package decision

import (
	"fmt"
	"strings"

	"github.com/migrationguard/core/pkg/models"
)

// RiskAssessment is the intermediate result of assessRisk, folded back into
// the Decision's RiskLevel/RequiresApproval fields by Decide.
type RiskAssessment struct {
	Level            models.RiskLevel
	Factors          []string
	RequiresApproval bool
	Reasoning        string
}

func (e *Engine) assessRisk(d models.Decision, ctx models.MerchantContext) RiskAssessment {
	var factors []string
	if ctx.AffectsCheckout {
		factors = append(factors, "revenue_impact")
	}
	if ctx.AffectsPayment {
		factors = append(factors, "payment_impact")
	}
	if d.ActionType == models.ActionTemporaryMitigation {
		factors = append(factors, "config_change")
	}
	if d.Confidence < 0.7 {
		factors = append(factors, "low_confidence")
	}
	if len(ctx.AffectedMerchantsOrSelf()) > 1 {
		factors = append(factors, "multi_merchant_impact")
	}
	if ctx.Severity == models.SeverityCritical {
		factors = append(factors, "critical_severity")
	}

	level := riskLevelFromFactors(factors)
	requiresApproval := level == models.RiskHigh || level == models.RiskCritical ||
		d.Confidence < 0.7 || d.ActionType == models.ActionTemporaryMitigation

	return RiskAssessment{
		Level:            level,
		Factors:          factors,
		RequiresApproval: requiresApproval,
		Reasoning:        riskReasoning(level, factors, requiresApproval),
	}
}

func riskLevelFromFactors(factors []string) models.RiskLevel {
	has := func(want string) bool {
		for _, f := range factors {
			if f == want {
				return true
			}
		}
		return false
	}
	switch {
	case has("revenue_impact") || has("payment_impact"):
		return models.RiskCritical
	case len(factors) >= 2:
		return models.RiskHigh
	case len(factors) == 1:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func riskReasoning(level models.RiskLevel, factors []string, requiresApproval bool) string {
	if len(factors) == 0 {
		return fmt.Sprintf("Risk level: %s. No significant risk factors identified. Action can proceed automatically.", level)
	}
	approvalText := "Can proceed automatically."
	if requiresApproval {
		approvalText = "Requires human approval."
	}
	return fmt.Sprintf("Risk level: %s. Risk factors: %s. %s", level, strings.Join(factors, ", "), approvalText)
}
