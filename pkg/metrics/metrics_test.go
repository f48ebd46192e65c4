package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordingMethodsDoNotPanic(t *testing.T) {
	r := New()

	r.RecordSignalIngested("support_ticket", "high")
	r.RecordSignalProcessingDuration(1.5)
	r.RecordPatternDetectionDuration(0.5)
	r.RecordRootCauseAnalysisDuration(2.0)
	r.RecordDecisionMakingDuration(0.05)
	r.RecordActionExecutionDuration(1.0)
	r.RecordDecision("support_guidance", "low", false)
	r.RecordDecisionAccuracy("support_guidance", true)
	r.RecordDecisionAccuracy("support_guidance", false)
	r.UpdateDecisionAccuracyRate("support_guidance", 0.9)
	r.RecordActionExecuted("support_guidance", true)
	r.UpdateActionSuccessRate("support_guidance", 0.95)
	r.RecordTicketReceived("zendesk")
	r.RecordTicketDeflected("zendesk")
	r.UpdateTicketDeflectionRate(0.4)
	r.RecordTicketResolutionDuration(300)
	r.RecordConfidenceScore("decision", 0.82)
	r.UpdateConfidenceCalibrationError("0.8-0.9", 0.03)
	r.UpdateApprovalsPending(2)
	r.RecordApprovalDecision(true)
	r.RecordApprovalWaitDuration(600)
	r.RecordError("executor", "timeout")
	r.UpdateActiveIssues("decided", 3)
}

func TestRecorder_HandlerServesPrometheusText(t *testing.T) {
	r := New()
	r.RecordSignalIngested("support_ticket", "high")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "migrationguard_signals_ingested_total"))
}

func TestRecordDecisionAccuracy_OnlyIncrementsWhenAccurate(t *testing.T) {
	r := New()
	r.RecordDecisionAccuracy("support_guidance", false)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.False(t, strings.Contains(rec.Body.String(), `migrationguard_decisions_accurate_total{action_type="support_guidance"} 1`))
}
