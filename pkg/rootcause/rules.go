package rootcause

import (
	"fmt"
	"strings"

	"github.com/migrationguard/core/pkg/models"
)

// RuleBasedAnalyzer is the deterministic fallback used when the LLM path is
// unavailable. Rules evaluate in order; the first match wins.
type RuleBasedAnalyzer struct{}

// NewRuleBasedAnalyzer constructs a RuleBasedAnalyzer. It holds no state.
func NewRuleBasedAnalyzer() *RuleBasedAnalyzer {
	return &RuleBasedAnalyzer{}
}

// Analyze classifies signals and patterns against the seven ordered rules
// and always returns a valid analysis, never an error.
func (a *RuleBasedAnalyzer) Analyze(signals []models.Signal, patterns []models.Pattern, _ models.MerchantContext) models.RootCauseAnalysis {
	category, confidence, reasoning, evidence := applyRules(signals, patterns)

	return models.RootCauseAnalysis{
		Category:            category,
		Confidence:          confidence,
		Reasoning:           reasoning,
		Evidence:            evidence,
		RecommendedActions:  recommendedActions(category),
		AlternativesConsidered: alternativesFor(category),
	}
}

func applyRules(signals []models.Signal, patterns []models.Pattern) (models.RootCauseCategory, float64, string, []string) {
	// Rule 1: authentication errors.
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.ErrorCode != "" && containsAny(strings.ToLower(s.ErrorCode), "401", "403", "unauthorized", "forbidden", "auth")
	}); n > 0 {
		return models.CategoryMigrationMisstep, 0.75,
			"Multiple authentication errors detected. This typically indicates incorrect API credentials or missing authentication configuration during migration.",
			[]string{fmt.Sprintf("Found %d authentication-related errors", n)}
	}

	// Rule 2: configuration errors.
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.ErrorMessage != "" && containsAny(strings.ToLower(s.ErrorMessage), "config", "configuration", "setting", "environment", "variable")
	}); n > 0 {
		return models.CategoryConfigError, 0.70,
			"Configuration-related errors detected. This suggests incorrect settings or environment variables.",
			[]string{fmt.Sprintf("Found %d configuration-related errors", n)}
	}

	// Rule 3: webhook failures.
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.Source == models.SourceWebhookFailure
	}); n > 0 {
		return models.CategoryConfigError, 0.65,
			"Webhook failures detected. This typically indicates incorrect webhook URLs or missing webhook configuration.",
			[]string{fmt.Sprintf("Found %d webhook failures", n)}
	}

	// Rule 4: endpoint errors (404, 405).
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.ErrorCode != "" && containsAny(s.ErrorCode, "404", "405")
	}); n > 0 {
		evidence := []string{fmt.Sprintf("Found %d endpoint-related errors", n)}
		if anyHighFrequency(patterns, 5) {
			return models.CategoryPlatformRegression, 0.68,
				"Multiple endpoint errors affecting many merchants. This suggests a platform API change or regression.",
				evidence
		}
		return models.CategoryMigrationMisstep, 0.65,
			"Endpoint errors detected. This may indicate incorrect API endpoint URLs in merchant configuration.",
			evidence
	}

	// Rule 5: checkout errors.
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.Source == models.SourceCheckoutError
	}); n > 0 {
		return models.CategoryMigrationMisstep, 0.60,
			"Checkout errors detected. This typically indicates issues with payment gateway configuration or checkout flow setup.",
			[]string{fmt.Sprintf("Found %d checkout errors", n)}
	}

	// Rule 6: cross-merchant patterns.
	if n := countPatternsMatching(patterns, func(p models.Pattern) bool { return len(p.MerchantIDs) > 3 }); n > 0 {
		return models.CategoryPlatformRegression, 0.70,
			"Issue affects multiple merchants simultaneously. This strongly suggests a platform-wide regression or bug.",
			[]string{fmt.Sprintf("Found %d patterns affecting multiple merchants", n)}
	}

	// Rule 7: documentation keywords.
	if n := countMatching(signals, func(s models.Signal) bool {
		return s.ErrorMessage != "" && containsAny(strings.ToLower(s.ErrorMessage), "unclear", "missing", "documentation", "docs", "guide", "tutorial", "example")
	}); n > 0 {
		return models.CategoryDocumentationGap, 0.60,
			"Signals mention documentation issues. This suggests missing or unclear guidance in documentation.",
			[]string{fmt.Sprintf("Found %d documentation-related signals", n)}
	}

	return models.CategoryMigrationMisstep, 0.50,
		"Unable to determine specific root cause with high confidence. Based on context, this appears to be a merchant configuration issue during migration. Manual review recommended.",
		[]string{"No specific error patterns matched, defaulting to migration misstep"}
}

func recommendedActions(category models.RootCauseCategory) []string {
	switch category {
	case models.CategoryMigrationMisstep:
		return []string{
			"Provide step-by-step guidance to merchant",
			"Review merchant's migration checklist",
			"Check API credentials and configuration",
		}
	case models.CategoryPlatformRegression:
		return []string{
			"Escalate to engineering team",
			"Check recent platform changes",
			"Notify affected merchants",
		}
	case models.CategoryDocumentationGap:
		return []string{
			"Update documentation with clearer instructions",
			"Add examples and troubleshooting guide",
			"Create FAQ entry",
		}
	case models.CategoryConfigError:
		return []string{
			"Review merchant configuration settings",
			"Validate environment variables",
			"Check webhook and API endpoint URLs",
		}
	default:
		return []string{"Manual investigation required"}
	}
}

// alternativesFor always returns exactly one entry: the rule-path always
// considers exactly one alternative, the next-most-plausible category
// given how coarse the heuristics are.
func alternativesFor(category models.RootCauseCategory) []models.Alternative {
	next := models.CategoryConfigError
	if category == models.CategoryConfigError {
		next = models.CategoryMigrationMisstep
	}
	return []models.Alternative{{
		Hypothesis:     string(next),
		ReasonRejected: "Rule-based analysis selected most likely category based on signal patterns",
	}}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func countMatching(signals []models.Signal, pred func(models.Signal) bool) int {
	n := 0
	for _, s := range signals {
		if pred(s) {
			n++
		}
	}
	return n
}

func countPatternsMatching(patterns []models.Pattern, pred func(models.Pattern) bool) int {
	n := 0
	for _, p := range patterns {
		if pred(p) {
			n++
		}
	}
	return n
}

func anyHighFrequency(patterns []models.Pattern, threshold int) bool {
	for _, p := range patterns {
		if p.Frequency() > threshold {
			return true
		}
	}
	return false
}
