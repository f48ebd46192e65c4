package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/migrationguard/core/pkg/models"
)

func TestRiskLevelFromFactors(t *testing.T) {
	assert.Equal(t, models.RiskCritical, riskLevelFromFactors([]string{"revenue_impact"}))
	assert.Equal(t, models.RiskCritical, riskLevelFromFactors([]string{"payment_impact", "low_confidence"}))
	assert.Equal(t, models.RiskHigh, riskLevelFromFactors([]string{"low_confidence", "multi_merchant_impact"}))
	assert.Equal(t, models.RiskMedium, riskLevelFromFactors([]string{"low_confidence"}))
	assert.Equal(t, models.RiskLow, riskLevelFromFactors(nil))
}

func TestEscalationPriority(t *testing.T) {
	assert.Equal(t, "critical", escalationPriority(models.MerchantContext{Severity: models.SeverityCritical}))
	assert.Equal(t, "critical", escalationPriority(models.MerchantContext{AffectedMerchants: make([]string, 6)}))
	assert.Equal(t, "high", escalationPriority(models.MerchantContext{Severity: models.SeverityHigh}))
	assert.Equal(t, "medium", escalationPriority(models.MerchantContext{}))
}

func TestCanAutoFixConfig_RejectsMultiMerchant(t *testing.T) {
	ctx := models.MerchantContext{
		AffectedResource:  "webhook_url",
		AffectedMerchants: []string{"m1", "m2"},
	}
	analysis := models.RootCauseAnalysis{Confidence: 0.9}
	assert.False(t, canAutoFixConfig(analysis, ctx))
}

func TestCanAutoFixConfig_RejectsUnsafeResource(t *testing.T) {
	ctx := models.MerchantContext{AffectedResource: "payment_gateway_url"}
	analysis := models.RootCauseAnalysis{Confidence: 0.9}
	assert.False(t, canAutoFixConfig(analysis, ctx))
}
