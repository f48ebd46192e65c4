package patterndetect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
)

func makeSignal(id, merchant, errorCode, source string, at time.Time) models.Signal {
	return models.Signal{
		SignalID:   id,
		MerchantID: merchant,
		ErrorCode:  errorCode,
		Source:     models.Source(source),
		Timestamp:  at,
	}
}

func TestAnalyzeSignals_CrossMerchantPattern(t *testing.T) {
	d := NewDetector(3, 0.3)
	now := time.Now()

	signals := []models.Signal{
		makeSignal("s1", "merchant-a", "503", "api_failure", now),
		makeSignal("s2", "merchant-b", "503", "api_failure", now.Add(time.Second)),
		makeSignal("s3", "merchant-c", "503", "api_failure", now.Add(2*time.Second)),
	}

	patterns := d.AnalyzeSignals(signals)
	require.NotEmpty(t, patterns)

	var crossMerchant *models.Pattern
	for i := range patterns {
		if patterns[i].CrossMerchant() {
			crossMerchant = &patterns[i]
		}
	}
	require.NotNil(t, crossMerchant)
	assert.Equal(t, models.PatternAPIFailure, crossMerchant.Type)
	assert.Len(t, crossMerchant.MerchantIDs, 3)
	assert.LessOrEqual(t, crossMerchant.Confidence, models.MaxPatternConfidence)
}

func TestAnalyzeSignals_BelowMinFrequencyProducesNothing(t *testing.T) {
	d := NewDetector(3, 0.3)
	now := time.Now()

	signals := []models.Signal{
		makeSignal("s1", "merchant-a", "503", "api_failure", now),
		makeSignal("s2", "merchant-b", "503", "api_failure", now),
	}

	patterns := d.AnalyzeSignals(signals)
	assert.Empty(t, patterns)
}

func TestAnalyzeSignals_ClustersMessagesWithoutErrorCode(t *testing.T) {
	d := NewDetector(3, 0.5)
	now := time.Now()

	signals := []models.Signal{
		{SignalID: "s1", MerchantID: "m1", Source: models.SourceSupportTicket, Timestamp: now, ErrorMessage: "webhook signature verification failed"},
		{SignalID: "s2", MerchantID: "m2", Source: models.SourceSupportTicket, Timestamp: now, ErrorMessage: "webhook signature verification failing"},
		{SignalID: "s3", MerchantID: "m3", Source: models.SourceSupportTicket, Timestamp: now, ErrorMessage: "webhook signature verification broken"},
	}

	patterns := d.AnalyzeSignals(signals)
	require.NotEmpty(t, patterns)
	found := false
	for _, p := range patterns {
		if clusterBased, ok := p.Characteristics["cluster_based"].(bool); ok && clusterBased {
			found = true
			assert.GreaterOrEqual(t, p.Frequency(), 3)
		}
	}
	assert.True(t, found, "expected at least one cluster-based pattern")
}

func TestFrequencyPatternConfidenceFormula(t *testing.T) {
	d := NewDetector(3, 0.3)
	now := time.Now()
	signals := []models.Signal{
		makeSignal("s1", "m1", "404", "api_failure", now),
		makeSignal("s2", "m1", "404", "api_failure", now),
		makeSignal("s3", "m1", "404", "api_failure", now),
	}

	p := d.frequencyPattern("404", signals)
	assert.InDelta(t, 0.65, p.Confidence, 0.0001) // 0.5 + 3*0.05
}

func TestCrossMerchantConfidenceFormulaClampedAt95(t *testing.T) {
	d := NewDetector(3, 0.3)
	now := time.Now()
	var signals []models.Signal
	for i := 0; i < 20; i++ {
		signals = append(signals, makeSignal(string(rune('a'+i)), "merchant-"+string(rune('a'+i)), "500", "api_failure", now))
	}
	merchantIDs := uniqueMerchants(signals)

	p := d.crossMerchantPattern("500", signals, merchantIDs)
	assert.Equal(t, models.MaxPatternConfidence, p.Confidence)
}
