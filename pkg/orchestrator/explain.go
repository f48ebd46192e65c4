package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// categoryDescriptions renders a RootCauseCategory as the prose fragment
// used in a root_cause reasoning step's summary. Grounded on
// create_root_cause_explanation's category_descriptions table.
var categoryDescriptions = map[models.RootCauseCategory]string{
	models.CategoryMigrationMisstep:   "a migration configuration issue",
	models.CategoryPlatformRegression: "a platform bug or regression",
	models.CategoryDocumentationGap:   "missing or unclear documentation",
	models.CategoryConfigError:        "a merchant configuration error",
}

// actionDescriptions renders an ActionType as prose. Grounded on
// create_decision_explanation's action_descriptions table.
var actionDescriptions = map[models.ActionType]string{
	models.ActionSupportGuidance:        "provide support guidance",
	models.ActionProactiveCommunication: "send proactive communication to merchant",
	models.ActionEngineeringEscalation:  "escalate to engineering team",
	models.ActionTemporaryMitigation:    "apply temporary mitigation",
	models.ActionDocumentationUpdate:    "update documentation",
}

// buildSignalStep produces the signals-stage reasoning step. Grounded on
// create_signal_explanation.
func buildSignalStep(signals []models.Signal, confidence float64, now time.Time) models.ReasoningStep {
	ids := make([]string, 0, len(signals))
	sourceSet := map[models.Source]bool{}
	for _, s := range signals {
		ids = append(ids, s.SignalID)
		sourceSet[s.Source] = true
	}
	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, string(s))
	}

	var summary string
	switch len(signals) {
	case 0:
		summary = "No signals observed for this issue."
	case 1:
		s := signals[0]
		summary = fmt.Sprintf("Observed signal from %s for merchant %s: %s", s.Source, s.MerchantID, orDefault(s.ErrorMessage, "No error message"))
	default:
		summary = fmt.Sprintf("Observed %d signals from sources: %s. Signals indicate potential issues affecting merchant operations.", len(signals), strings.Join(sources, ", "))
	}

	return models.ReasoningStep{
		Stage:     models.StageSignals,
		Timestamp: now,
		Summary:   summary,
		Data: map[string]any{
			"signal_count": len(signals),
			"sources":      sources,
		},
		Confidence:   confidence,
		EvidenceRefs: ids,
	}
}

// buildPatternStep produces the patterns-stage reasoning step. Grounded on
// create_pattern_explanation.
func buildPatternStep(patterns []models.Pattern, confidence float64, now time.Time) models.ReasoningStep {
	ids := make([]string, 0, len(patterns))
	for _, p := range patterns {
		ids = append(ids, p.PatternID)
	}

	var summary, uncertainty string
	switch len(patterns) {
	case 0:
		summary = "No recurring patterns detected. This appears to be an isolated incident."
		uncertainty = "Without pattern data, root cause analysis relies solely on individual signal characteristics."
	case 1:
		p := patterns[0]
		summary = fmt.Sprintf("Detected pattern '%s' affecting %d merchant(s). This pattern has occurred %d times.", p.Type, len(p.MerchantIDs), p.Frequency())
	default:
		summary = fmt.Sprintf("Detected %d related patterns, suggesting a systemic issue. Multiple patterns indicate complex root cause requiring careful analysis.", len(patterns))
		uncertainty = "Multiple overlapping patterns increase analysis complexity."
	}

	return models.ReasoningStep{
		Stage:     models.StagePatterns,
		Timestamp: now,
		Summary:   summary,
		Data: map[string]any{
			"pattern_count": len(patterns),
		},
		Confidence:   confidence,
		Uncertainty:  uncertainty,
		EvidenceRefs: ids,
	}
}

// buildRootCauseStep produces the root_cause-stage reasoning step.
// Grounded on create_root_cause_explanation, including its two confidence
// thresholds for surfacing uncertainty.
func buildRootCauseStep(analysis models.RootCauseAnalysis, now time.Time) models.ReasoningStep {
	categoryDesc := categoryDescriptions[analysis.Category]
	if categoryDesc == "" {
		categoryDesc = "an unknown issue type"
	}
	summary := fmt.Sprintf("Root cause identified as %s: %s. %s", categoryDesc, firstNonEmpty(analysis.Evidence), analysis.Reasoning)

	var uncertainty string
	switch {
	case analysis.Confidence < 0.7:
		uncertainty = fmt.Sprintf("Confidence is %.1f%%, below the 70%% threshold. This analysis should be reviewed by a human operator. Considered %d alternative explanations.", analysis.Confidence*100, len(analysis.AlternativesConsidered))
	case analysis.Confidence < 0.85:
		uncertainty = fmt.Sprintf("Moderate confidence (%.1f%%). Alternative explanations were considered but deemed less likely.", analysis.Confidence*100)
	}

	return models.ReasoningStep{
		Stage:     models.StageRootCause,
		Timestamp: now,
		Summary:   summary,
		Data: map[string]any{
			"category":  analysis.Category,
			"reasoning": analysis.Reasoning,
		},
		Confidence:  analysis.Confidence,
		Uncertainty: uncertainty,
	}
}

// buildDecisionStep produces the decision-stage reasoning step. Grounded on
// create_decision_explanation.
func buildDecisionStep(decision models.Decision, now time.Time) models.ReasoningStep {
	actionDesc := actionDescriptions[decision.ActionType]
	if actionDesc == "" {
		actionDesc = string(decision.ActionType)
	}

	summary := fmt.Sprintf("Decision: %s. Risk level: %s. %s", actionDesc, decision.RiskLevel, decision.Reasoning)
	if decision.RequiresApproval {
		summary += " This action requires human approval before execution."
	}

	var uncertainty string
	if decision.RequiresApproval {
		uncertainty = fmt.Sprintf("Approval required: risk_level=%s confidence=%.1f%%", decision.RiskLevel, decision.Confidence*100)
	}

	return models.ReasoningStep{
		Stage:     models.StageDecision,
		Timestamp: now,
		Summary:   summary,
		Data: map[string]any{
			"action_type":       decision.ActionType,
			"risk_level":        decision.RiskLevel,
			"requires_approval": decision.RequiresApproval,
		},
		Confidence:  decision.Confidence,
		Uncertainty: uncertainty,
	}
}

// assembleExplanation computes the overall confidence level and collects
// uncertainty factors across steps. Grounded on generate_explanation's
// tail (average-confidence bucketing and uncertainty_factors collection).
func assembleExplanation(issueID string, steps []models.ReasoningStep, alternatives []models.Alternative, finalDecision models.ActionType, now time.Time) models.Explanation {
	var sum float64
	for _, s := range steps {
		sum += s.Confidence
	}
	mean := 0.0
	if len(steps) > 0 {
		mean = sum / float64(len(steps))
	}

	var factors []string
	for _, s := range steps {
		if s.Uncertainty != "" {
			factors = append(factors, fmt.Sprintf("%s: %s", s.Stage, s.Uncertainty))
		}
	}

	return models.Explanation{
		IssueID:                issueID,
		ReasoningChain:         steps,
		AlternativesConsidered: alternatives,
		FinalDecision:          finalDecision,
		ConfidenceLevel:        models.ConfidenceLevelFor(mean),
		UncertaintyFactors:     factors,
		CreatedAt:              now,
	}
}

// RenderExplanation formats an Explanation as human-readable text for
// dashboards and audit-entry reasoning fields. Grounded on
// format_explanation_text.
func RenderExplanation(e models.Explanation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Explanation for Issue %s\n", e.IssueID)
	fmt.Fprintf(&b, "Generated at: %s\n", e.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall Confidence: %s\n\n", e.ConfidenceLevel)

	b.WriteString("## Reasoning Chain\n")
	for i, step := range e.ReasoningChain {
		fmt.Fprintf(&b, "\n### %d. %s\n", i+1, titleCase(string(step.Stage)))
		fmt.Fprintf(&b, "**Time:** %s\n", step.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "**Confidence:** %.1f%%\n", step.Confidence*100)
		fmt.Fprintf(&b, "\n%s\n", step.Summary)
		if step.Uncertainty != "" {
			fmt.Fprintf(&b, "\n**Uncertainty:** %s\n", step.Uncertainty)
		}
		if len(step.EvidenceRefs) > 0 {
			fmt.Fprintf(&b, "\n**Evidence:** %s\n", strings.Join(step.EvidenceRefs, ", "))
		}
	}

	if len(e.AlternativesConsidered) > 0 {
		b.WriteString("\n## Alternatives Considered\n")
		for _, alt := range e.AlternativesConsidered {
			fmt.Fprintf(&b, "- %s\n", alt.Hypothesis)
			if alt.ReasonRejected != "" {
				fmt.Fprintf(&b, "  Rejected because: %s\n", alt.ReasonRejected)
			}
		}
	}

	if len(e.UncertaintyFactors) > 0 {
		b.WriteString("\n## Uncertainty Factors\n")
		for _, f := range e.UncertaintyFactors {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	fmt.Fprintf(&b, "\n## Final Decision\nAction: %s\n", e.FinalDecision)
	return b.String()
}

func titleCase(s string) string {
	parts := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstNonEmpty(evidence []string) string {
	if len(evidence) == 0 {
		return ""
	}
	return evidence[0]
}
