// Package rootcause implements the Root-Cause Analyzer: an LLM call behind
// a circuit breaker, falling back to a deterministic rule-based classifier
// when the LLM path is unavailable.
package rootcause

import "github.com/migrationguard/core/pkg/models"

// Outcome carries a RootCauseAnalysis together with how it was produced,
// so callers (the orchestrator, the audit trail) can record degradation
// without the analyzer returning an error for what is, from the caller's
// point of view, a successful analysis.
type Outcome struct {
	Analysis models.RootCauseAnalysis
	// FallbackReason is empty when the analysis came from the LLM. When
	// non-empty it names why the rule-based path was used instead.
	FallbackReason string
}

// UsedFallback reports whether the rule-based analyzer produced this
// outcome rather than the LLM.
func (o Outcome) UsedFallback() bool {
	return o.FallbackReason != ""
}

// Ok wraps an LLM-produced analysis.
func Ok(analysis models.RootCauseAnalysis) Outcome {
	return Outcome{Analysis: analysis}
}

// Fallback wraps a rule-based analysis together with the reason the LLM
// path was not used.
func Fallback(reason string, analysis models.RootCauseAnalysis) Outcome {
	return Outcome{Analysis: analysis, FallbackReason: reason}
}
