package rootcause

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
)

func TestParseAnalysis_StripsJSONFence(t *testing.T) {
	text := "```json\n{\"category\":\"config_error\",\"confidence\":0.8,\"reasoning\":\"r\",\"evidence\":[\"e\"],\"recommended_actions\":[\"a\"]}\n```"

	analysis, err := parseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryConfigError, analysis.Category)
	assert.Equal(t, 0.8, analysis.Confidence)
}

func TestParseAnalysis_StripsBareFence(t *testing.T) {
	text := "```\n{\"category\":\"documentation_gap\",\"confidence\":0.6,\"reasoning\":\"r\",\"evidence\":[\"e\"],\"recommended_actions\":[\"a\"]}\n```"

	analysis, err := parseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryDocumentationGap, analysis.Category)
}

func TestParseAnalysis_InvalidJSON(t *testing.T) {
	_, err := parseAnalysis("not json")
	assert.Error(t, err)
}

func TestBuildAnalysisPrompt_SummarizesBeyondTenSignals(t *testing.T) {
	var signals []models.Signal
	for i := 0; i < 15; i++ {
		signals = append(signals, models.Signal{SignalID: "s", Source: models.SourceAPIFailure, Timestamp: time.Now()})
	}

	prompt := buildAnalysisPrompt(signals, nil, models.MerchantContext{})
	assert.Contains(t, prompt, "... and 5 more signals")
}

func TestBuildAnalysisPrompt_IncludesMerchantContextWhenPresent(t *testing.T) {
	ctx := models.MerchantContext{AffectsCheckout: true, AffectedMerchants: []string{"m1", "m2"}}
	prompt := buildAnalysisPrompt(nil, nil, ctx)
	assert.Contains(t, prompt, "affects_checkout=true")
	assert.Contains(t, prompt, "affected_merchants=2")
}
