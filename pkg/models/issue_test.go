package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueStateTransitions(t *testing.T) {
	now := time.Now()
	issue := NewIssueState("issue-1", now)
	require.Equal(t, IssueNew, issue.Status)

	require.NoError(t, issue.TransitionTo(IssueObserving, now))
	require.NoError(t, issue.TransitionTo(IssuePatternDetected, now))
	require.NoError(t, issue.TransitionTo(IssueAnalyzed, now))
	require.NoError(t, issue.TransitionTo(IssueDecided, now))
	require.NoError(t, issue.TransitionTo(IssueActionExecuted, now))

	// Terminal state: no further transitions allowed.
	err := issue.TransitionTo(IssueObserving, now)
	assert.Error(t, err)
	var tErr *InvalidTransitionError
	assert.ErrorAs(t, err, &tErr)
}

func TestIssueStateInvalidSkip(t *testing.T) {
	now := time.Now()
	issue := NewIssueState("issue-2", now)
	err := issue.TransitionTo(IssueDecided, now)
	assert.Error(t, err)
}

func TestDecisionValidateApprovalInvariants(t *testing.T) {
	d := &Decision{
		ActionType:       ActionSupportGuidance,
		RiskLevel:        RiskHigh,
		RequiresApproval: false,
		EstimatedOutcome: "customer guided to fix",
	}
	assert.ErrorIs(t, d.Validate(), ErrApprovalRequired)

	d.RequiresApproval = true
	assert.NoError(t, d.Validate())
}

func TestDecisionValidateLowConfidenceRequiresApproval(t *testing.T) {
	d := &Decision{
		ActionType:       ActionSupportGuidance,
		RiskLevel:        RiskLow,
		Confidence:       0.5,
		RequiresApproval: false,
		EstimatedOutcome: "x",
	}
	assert.ErrorIs(t, d.Validate(), ErrApprovalRequired)
}

func TestRootCauseAnalysisValidate(t *testing.T) {
	a := &RootCauseAnalysis{
		Category:           CategoryMigrationMisstep,
		Confidence:         0.8,
		Reasoning:          "auth header missing",
		Evidence:           []string{"401 on /checkout"},
		RecommendedActions: []string{"ask merchant to regenerate API key"},
	}
	assert.NoError(t, a.Validate())

	a.Evidence = nil
	assert.ErrorIs(t, a.Validate(), ErrEmptyEvidence)
}

func TestPatternConfidenceMonotonicity(t *testing.T) {
	p := &Pattern{Confidence: 0.6}
	next := p.ClampConfidence(0.55)
	assert.Equal(t, 0.6, next, "confidence must never decrease")

	next = p.ClampConfidence(0.99)
	assert.Equal(t, MaxPatternConfidence, next, "confidence must be clamped at the hard ceiling")
}
