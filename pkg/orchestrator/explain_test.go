package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/migrationguard/core/pkg/models"
)

func TestBuildPatternStep_NoPatternsSurfacesUncertainty(t *testing.T) {
	step := buildPatternStep(nil, 1.0, time.Now())
	assert.Equal(t, models.StagePatterns, step.Stage)
	assert.NotEmpty(t, step.Uncertainty)
}

func TestBuildRootCauseStep_LowConfidenceSurfacesUncertainty(t *testing.T) {
	analysis := models.RootCauseAnalysis{
		Category:   models.CategoryConfigError,
		Confidence: 0.5,
		Reasoning:  "uncertain",
		Evidence:   []string{"sig_1"},
	}
	step := buildRootCauseStep(analysis, time.Now())
	assert.Contains(t, step.Uncertainty, "below the 70% threshold")
}

func TestBuildRootCauseStep_HighConfidenceHasNoUncertainty(t *testing.T) {
	analysis := models.RootCauseAnalysis{
		Category:   models.CategoryMigrationMisstep,
		Confidence: 0.95,
		Reasoning:  "clear",
		Evidence:   []string{"sig_1"},
	}
	step := buildRootCauseStep(analysis, time.Now())
	assert.Empty(t, step.Uncertainty)
}

func TestAssembleExplanation_ConfidenceLevelBuckets(t *testing.T) {
	steps := []models.ReasoningStep{
		{Stage: models.StageSignals, Confidence: 0.9},
		{Stage: models.StagePatterns, Confidence: 0.9},
		{Stage: models.StageRootCause, Confidence: 0.9},
		{Stage: models.StageDecision, Confidence: 0.9},
	}
	explanation := assembleExplanation("issue_1", steps, nil, models.ActionSupportGuidance, time.Now())
	assert.Equal(t, "high", explanation.ConfidenceLevel)
}

func TestRenderExplanation_IncludesAllSections(t *testing.T) {
	explanation := models.Explanation{
		IssueID: "issue_1",
		ReasoningChain: []models.ReasoningStep{
			{Stage: models.StageSignals, Summary: "observed stuff", Confidence: 1.0, Timestamp: time.Now()},
		},
		AlternativesConsidered: []models.Alternative{{Hypothesis: "other cause", ReasonRejected: "ruled out"}},
		FinalDecision:          models.ActionSupportGuidance,
		ConfidenceLevel:        "high",
		UncertaintyFactors:     []string{"root_cause: moderate confidence"},
		CreatedAt:              time.Now(),
	}

	text := RenderExplanation(explanation)
	assert.True(t, strings.Contains(text, "# Explanation for Issue issue_1"))
	assert.True(t, strings.Contains(text, "## Alternatives Considered"))
	assert.True(t, strings.Contains(text, "## Uncertainty Factors"))
	assert.True(t, strings.Contains(text, "## Final Decision"))
}
