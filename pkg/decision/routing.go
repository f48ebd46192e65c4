package decision

import (
	"fmt"
	"strings"

	"github.com/migrationguard/core/pkg/models"
)

var safeConfigResources = []string{"webhook_url", "api_timeout", "retry_count", "log_level"}

func (e *Engine) handleMigrationMisstep(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	return models.Decision{
		DecisionID:       e.decisionID(issueID),
		IssueID:          issueID,
		ActionType:       models.ActionSupportGuidance,
		RiskLevel:        models.RiskLow,
		Confidence:       analysis.Confidence,
		Reasoning:        fmt.Sprintf("Migration misstep detected. Providing guidance to merchant: %s", analysis.Reasoning),
		EstimatedOutcome: "Merchant will receive step-by-step guidance to resolve the issue",
		Parameters: map[string]any{
			"message":        guidanceMessage(analysis),
			"merchant_id":    ctx.MerchantID,
			"support_system": supportSystemOr(ctx, "zendesk"),
			"ticket_id":      ctx.TicketID,
		},
		AlternativesConsidered: []models.Alternative{{
			Hypothesis:     string(models.ActionProactiveCommunication),
			ReasonRejected: "Issue already reported via ticket, no need for proactive outreach",
		}},
	}
}

func (e *Engine) handlePlatformRegression(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	return models.Decision{
		DecisionID:       e.decisionID(issueID),
		IssueID:          issueID,
		ActionType:       models.ActionEngineeringEscalation,
		RiskLevel:        models.RiskHigh,
		Confidence:       analysis.Confidence,
		Reasoning:        fmt.Sprintf("Platform regression detected. Escalating to engineering: %s", analysis.Reasoning),
		EstimatedOutcome: "Engineering team will investigate and fix the platform bug",
		Parameters: map[string]any{
			"title":              fmt.Sprintf("Platform Regression: %s", errorMessageOr(ctx, "Unknown error")),
			"description":        escalationDescription(analysis, ctx),
			"priority":           escalationPriority(ctx),
			"affected_merchants": ctx.AffectedMerchantsOrSelf(),
			"signals":            ctx.SignalIDs,
			"patterns":           ctx.PatternIDs,
		},
		AlternativesConsidered: []models.Alternative{{
			Hypothesis:     string(models.ActionTemporaryMitigation),
			ReasonRejected: "Platform bug requires code fix, not configuration change",
		}},
	}
}

func (e *Engine) handleDocumentationGap(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	section := ctx.DocumentationSection
	if section == "" {
		section = "migration_guide"
	}
	return models.Decision{
		DecisionID:       e.decisionID(issueID),
		IssueID:          issueID,
		ActionType:       models.ActionDocumentationUpdate,
		RiskLevel:        models.RiskLow,
		Confidence:       analysis.Confidence,
		Reasoning:        fmt.Sprintf("Documentation gap identified. Creating update request: %s", analysis.Reasoning),
		EstimatedOutcome: "Documentation will be updated to prevent future confusion",
		Parameters: map[string]any{
			"section":           section,
			"issue_description": analysis.Reasoning,
			"suggested_content": docSuggestion(analysis),
			"merchant_id":       ctx.MerchantID,
			"related_signals":   ctx.SignalIDs,
		},
		AlternativesConsidered: []models.Alternative{{
			Hypothesis:     string(models.ActionSupportGuidance),
			ReasonRejected: "Also needed: will provide immediate guidance while doc is updated",
		}},
	}
}

func (e *Engine) handleConfigError(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	autoFix := canAutoFixConfig(analysis, ctx) && analysis.Confidence >= 0.8

	var actionType models.ActionType
	var reasoning, estimatedOutcome string
	var parameters map[string]any
	var alternative models.Alternative

	if autoFix {
		actionType = models.ActionTemporaryMitigation
		reasoning = fmt.Sprintf("Configuration error detected with high confidence. Applying automatic fix: %s", analysis.Reasoning)
		estimatedOutcome = "Configuration will be corrected automatically, resolving the issue"
		parameters = map[string]any{
			"config_change":       configFix(ctx),
			"merchant_id":         ctx.MerchantID,
			"resource":            ctx.AffectedResource,
			"validation_required": true,
		}
		alternative = models.Alternative{
			Hypothesis:     string(models.ActionSupportGuidance),
			ReasonRejected: "High confidence allows automatic fix",
		}
	} else {
		actionType = models.ActionSupportGuidance
		reasoning = fmt.Sprintf("Configuration error detected. Providing guidance for manual correction: %s", analysis.Reasoning)
		estimatedOutcome = "Merchant will receive guidance to correct their configuration"
		parameters = map[string]any{
			"message":        configGuidance(analysis),
			"merchant_id":    ctx.MerchantID,
			"support_system": supportSystemOr(ctx, "zendesk"),
			"ticket_id":      ctx.TicketID,
		}
		alternative = models.Alternative{
			Hypothesis:     string(models.ActionTemporaryMitigation),
			ReasonRejected: "Confidence too low for automatic fix",
		}
	}

	return models.Decision{
		DecisionID:             e.decisionID(issueID),
		IssueID:                issueID,
		ActionType:             actionType,
		RiskLevel:              models.RiskMedium,
		Confidence:             analysis.Confidence,
		Reasoning:              reasoning,
		EstimatedOutcome:       estimatedOutcome,
		Parameters:             parameters,
		AlternativesConsidered: []models.Alternative{alternative},
	}
}

// handleUnknownCategory is defensive: RootCauseAnalysis.Validate rejects
// any category outside the closed set before it reaches the Decision
// Engine, so this path is only reachable if a caller skips validation.
func (e *Engine) handleUnknownCategory(analysis models.RootCauseAnalysis, ctx models.MerchantContext, issueID string) models.Decision {
	return models.Decision{
		DecisionID:       e.decisionID(issueID),
		IssueID:          issueID,
		ActionType:       models.ActionEngineeringEscalation,
		RiskLevel:        models.RiskHigh,
		Confidence:       0,
		Reasoning:        fmt.Sprintf("Unknown root cause category: %s. Escalating for human review.", analysis.Category),
		EstimatedOutcome: "Human operator will review and determine appropriate action",
		Parameters: map[string]any{
			"title":       fmt.Sprintf("Unknown Issue Category: %s", errorMessageOr(ctx, "Unknown")),
			"description": fmt.Sprintf("Analysis: %s", analysis.Reasoning),
			"priority":    "high",
			"merchant_id": ctx.MerchantID,
		},
	}
}

func canAutoFixConfig(analysis models.RootCauseAnalysis, ctx models.MerchantContext) bool {
	if analysis.Confidence < 0.8 {
		return false
	}
	if ctx.AffectsCheckout || ctx.AffectsPayment {
		return false
	}
	if len(ctx.AffectedMerchantsOrSelf()) > 1 {
		return false
	}
	resource := strings.ToLower(ctx.AffectedResource)
	for _, safe := range safeConfigResources {
		if strings.Contains(resource, safe) {
			return true
		}
	}
	return false
}

func configFix(ctx models.MerchantContext) map[string]any {
	return map[string]any{
		"resource":            ctx.AffectedResource,
		"change_type":         "update",
		"new_value":           "auto_detected",
		"validation_rules":    []string{"syntax_check", "connectivity_test"},
		"rollback_on_failure": true,
	}
}

func escalationPriority(ctx models.MerchantContext) string {
	count := len(ctx.AffectedMerchants)
	switch {
	case ctx.Severity == models.SeverityCritical || count > 5:
		return "critical"
	case ctx.Severity == models.SeverityHigh || count > 2:
		return "high"
	default:
		return "medium"
	}
}

func supportSystemOr(ctx models.MerchantContext, fallback string) string {
	if ctx.SupportSystem != "" {
		return ctx.SupportSystem
	}
	return fallback
}

func errorMessageOr(ctx models.MerchantContext, fallback string) string {
	if ctx.ErrorMessage != "" {
		return ctx.ErrorMessage
	}
	return fallback
}

func guidanceMessage(analysis models.RootCauseAnalysis) string {
	var b strings.Builder
	b.WriteString("Based on our analysis, we've identified the following issue:\n\n")
	b.WriteString(analysis.Reasoning)
	b.WriteString("\n\nRecommended actions:\n")
	for _, action := range analysis.RecommendedActions {
		fmt.Fprintf(&b, "- %s\n", action)
	}
	b.WriteString("\nIf you need further assistance, please don't hesitate to reach out to our support team.\n")
	return b.String()
}

func configGuidance(analysis models.RootCauseAnalysis) string {
	var b strings.Builder
	b.WriteString("We've detected a configuration issue that needs your attention:\n\n")
	b.WriteString(analysis.Reasoning)
	b.WriteString("\n\nTo resolve this issue:\n")
	for i, action := range analysis.RecommendedActions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}
	b.WriteString("\nPlease review your configuration and make the necessary changes. If you need help, our support team is here to assist.\n")
	return b.String()
}

func escalationDescription(analysis models.RootCauseAnalysis, ctx models.MerchantContext) string {
	var b strings.Builder
	b.WriteString("Platform Regression Detected\n\nRoot Cause Analysis:\n")
	b.WriteString(analysis.Reasoning)
	b.WriteString("\n\nEvidence:\n")
	for _, e := range analysis.Evidence {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	fmt.Fprintf(&b, "\nAffected Merchant(s): %s\nMigration Stage: %s\nSeverity: %s\n",
		ctx.MerchantID, stringOr(ctx.MigrationStage, "Unknown"), stringOr(string(ctx.Severity), "Unknown"))
	fmt.Fprintf(&b, "\nSignals: %s\nPatterns: %s\n", strings.Join(ctx.SignalIDs, ", "), strings.Join(ctx.PatternIDs, ", "))
	return b.String()
}

func docSuggestion(analysis models.RootCauseAnalysis) string {
	var b strings.Builder
	b.WriteString("Suggested documentation update:\n\nIssue: ")
	b.WriteString(analysis.Reasoning)
	b.WriteString("\n\nRecommended content to add:\n")
	for _, action := range analysis.RecommendedActions {
		fmt.Fprintf(&b, "- %s\n", action)
	}
	b.WriteString("\nThis will help merchants avoid similar issues in the future.\n")
	return b.String()
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
