// Package metrics exposes operational and decision-quality counters for
// the core as Prometheus metrics, grounded on metrics_exporter.py.
// Exposition (the HTTP handler) is wired by cmd/core; this package only
// owns the registry and the typed recording methods.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns every metric this core emits, registered against a
// private registry rather than the global default so multiple Recorders
// (e.g. in tests) never collide.
type Recorder struct {
	registry *prometheus.Registry

	signalsIngestedTotal   *prometheus.CounterVec
	signalProcessingSecs   prometheus.Histogram
	patternDetectionSecs   prometheus.Histogram
	rootCauseAnalysisSecs  prometheus.Histogram
	decisionMakingSecs     prometheus.Histogram
	actionExecutionSecs    prometheus.Histogram

	decisionsTotal      *prometheus.CounterVec
	decisionsAccurate   *prometheus.CounterVec
	decisionAccuracyRate *prometheus.GaugeVec

	actionsExecutedTotal *prometheus.CounterVec
	actionSuccessRate    *prometheus.GaugeVec

	ticketsReceivedTotal  *prometheus.CounterVec
	ticketsDeflectedTotal *prometheus.CounterVec
	ticketDeflectionRate  prometheus.Gauge
	ticketResolutionSecs  prometheus.Histogram

	confidenceScores          *prometheus.HistogramVec
	confidenceCalibrationErr  *prometheus.GaugeVec

	approvalsPending      prometheus.Gauge
	approvalsTotal        *prometheus.CounterVec
	approvalWaitSecs      prometheus.Histogram

	errorsTotal  *prometheus.CounterVec
	activeIssues *prometheus.GaugeVec
}

// New builds a Recorder with every metric registered. Grounded on
// MetricsExporter.__init__'s metric declarations; names keep the
// migrationguard_ prefix and bucket boundaries from the original.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.signalsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_signals_ingested_total",
		Help: "Total number of signals ingested.",
	}, []string{"source", "severity"})

	r.signalProcessingSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_signal_processing_duration_seconds",
		Help:    "Time to process a signal through the agent loop.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
	})
	r.patternDetectionSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_pattern_detection_duration_seconds",
		Help:    "Time to detect patterns.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})
	r.rootCauseAnalysisSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_root_cause_analysis_duration_seconds",
		Help:    "Time to perform root cause analysis.",
		Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})
	r.decisionMakingSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_decision_making_duration_seconds",
		Help:    "Time to make a decision.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
	})
	r.actionExecutionSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_action_execution_duration_seconds",
		Help:    "Time to execute an action.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	r.decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_decisions_total",
		Help: "Total number of decisions made.",
	}, []string{"action_type", "risk_level", "requires_approval"})
	r.decisionsAccurate = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_decisions_accurate_total",
		Help: "Number of accurate decisions, validated by human feedback.",
	}, []string{"action_type"})
	r.decisionAccuracyRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migrationguard_decision_accuracy_rate",
		Help: "Current decision accuracy rate (0-1).",
	}, []string{"action_type"})

	r.actionsExecutedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_actions_executed_total",
		Help: "Total number of actions executed.",
	}, []string{"action_type", "status"})
	r.actionSuccessRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migrationguard_action_success_rate",
		Help: "Current action success rate (0-1).",
	}, []string{"action_type"})

	r.ticketsReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_tickets_received_total",
		Help: "Total number of tickets received.",
	}, []string{"source"})
	r.ticketsDeflectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_tickets_deflected_total",
		Help: "Total number of tickets deflected (auto-resolved).",
	}, []string{"source"})
	r.ticketDeflectionRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "migrationguard_ticket_deflection_rate",
		Help: "Current ticket deflection rate (0-1).",
	})
	r.ticketResolutionSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_ticket_resolution_duration_seconds",
		Help:    "Time to resolve a ticket.",
		Buckets: []float64{60, 300, 600, 900, 1800, 3600},
	})

	r.confidenceScores = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "migrationguard_confidence_scores",
		Help:    "Distribution of confidence scores.",
		Buckets: []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"stage"})
	r.confidenceCalibrationErr = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migrationguard_confidence_calibration_error",
		Help: "Confidence calibration error: difference between predicted and actual accuracy.",
	}, []string{"confidence_bucket"})

	r.approvalsPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "migrationguard_approvals_pending",
		Help: "Number of actions pending approval.",
	})
	r.approvalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_approvals_total",
		Help: "Total number of approval decisions.",
	}, []string{"decision"})
	r.approvalWaitSecs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migrationguard_approval_wait_duration_seconds",
		Help:    "Time waiting for human approval.",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400},
	})

	r.errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migrationguard_errors_total",
		Help: "Total number of errors.",
	}, []string{"component", "error_type"})
	r.activeIssues = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migrationguard_active_issues",
		Help: "Number of currently active issues.",
	}, []string{"stage"})

	r.registry.MustRegister(
		r.signalsIngestedTotal, r.signalProcessingSecs, r.patternDetectionSecs,
		r.rootCauseAnalysisSecs, r.decisionMakingSecs, r.actionExecutionSecs,
		r.decisionsTotal, r.decisionsAccurate, r.decisionAccuracyRate,
		r.actionsExecutedTotal, r.actionSuccessRate,
		r.ticketsReceivedTotal, r.ticketsDeflectedTotal, r.ticketDeflectionRate, r.ticketResolutionSecs,
		r.confidenceScores, r.confidenceCalibrationErr,
		r.approvalsPending, r.approvalsTotal, r.approvalWaitSecs,
		r.errorsTotal, r.activeIssues,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registered metrics in Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordSignalIngested mirrors record_signal_ingested.
func (r *Recorder) RecordSignalIngested(source, severity string) {
	r.signalsIngestedTotal.WithLabelValues(source, severity).Inc()
}

// RecordSignalProcessingDuration mirrors record_signal_processing_duration.
func (r *Recorder) RecordSignalProcessingDuration(seconds float64) {
	r.signalProcessingSecs.Observe(seconds)
}

// RecordPatternDetectionDuration mirrors record_pattern_detection_duration.
func (r *Recorder) RecordPatternDetectionDuration(seconds float64) {
	r.patternDetectionSecs.Observe(seconds)
}

// RecordRootCauseAnalysisDuration mirrors record_root_cause_analysis_duration.
func (r *Recorder) RecordRootCauseAnalysisDuration(seconds float64) {
	r.rootCauseAnalysisSecs.Observe(seconds)
}

// RecordDecisionMakingDuration mirrors record_decision_making_duration.
func (r *Recorder) RecordDecisionMakingDuration(seconds float64) {
	r.decisionMakingSecs.Observe(seconds)
}

// RecordActionExecutionDuration mirrors record_action_execution_duration.
func (r *Recorder) RecordActionExecutionDuration(seconds float64) {
	r.actionExecutionSecs.Observe(seconds)
}

// RecordDecision mirrors record_decision.
func (r *Recorder) RecordDecision(actionType, riskLevel string, requiresApproval bool) {
	r.decisionsTotal.WithLabelValues(actionType, riskLevel, boolLabel(requiresApproval)).Inc()
}

// RecordDecisionAccuracy mirrors record_decision_accuracy, incrementing
// only on accurate==true, matching the original's if-guard.
func (r *Recorder) RecordDecisionAccuracy(actionType string, accurate bool) {
	if accurate {
		r.decisionsAccurate.WithLabelValues(actionType).Inc()
	}
}

// UpdateDecisionAccuracyRate mirrors update_decision_accuracy_rate.
func (r *Recorder) UpdateDecisionAccuracyRate(actionType string, rate float64) {
	r.decisionAccuracyRate.WithLabelValues(actionType).Set(rate)
}

// RecordActionExecuted mirrors record_action_executed.
func (r *Recorder) RecordActionExecuted(actionType string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	r.actionsExecutedTotal.WithLabelValues(actionType, status).Inc()
}

// UpdateActionSuccessRate mirrors update_action_success_rate.
func (r *Recorder) UpdateActionSuccessRate(actionType string, rate float64) {
	r.actionSuccessRate.WithLabelValues(actionType).Set(rate)
}

// RecordTicketReceived mirrors record_ticket_received.
func (r *Recorder) RecordTicketReceived(source string) {
	r.ticketsReceivedTotal.WithLabelValues(source).Inc()
}

// RecordTicketDeflected mirrors record_ticket_deflected.
func (r *Recorder) RecordTicketDeflected(source string) {
	r.ticketsDeflectedTotal.WithLabelValues(source).Inc()
}

// UpdateTicketDeflectionRate mirrors update_ticket_deflection_rate.
func (r *Recorder) UpdateTicketDeflectionRate(rate float64) {
	r.ticketDeflectionRate.Set(rate)
}

// RecordTicketResolutionDuration mirrors record_ticket_resolution_duration.
func (r *Recorder) RecordTicketResolutionDuration(seconds float64) {
	r.ticketResolutionSecs.Observe(seconds)
}

// RecordConfidenceScore mirrors record_confidence_score.
func (r *Recorder) RecordConfidenceScore(stage string, confidence float64) {
	r.confidenceScores.WithLabelValues(stage).Observe(confidence)
}

// UpdateConfidenceCalibrationError mirrors update_confidence_calibration_error.
func (r *Recorder) UpdateConfidenceCalibrationError(bucket string, errVal float64) {
	r.confidenceCalibrationErr.WithLabelValues(bucket).Set(errVal)
}

// UpdateApprovalsPending mirrors update_approvals_pending.
func (r *Recorder) UpdateApprovalsPending(count int) {
	r.approvalsPending.Set(float64(count))
}

// RecordApprovalDecision mirrors record_approval_decision.
func (r *Recorder) RecordApprovalDecision(approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	r.approvalsTotal.WithLabelValues(decision).Inc()
}

// RecordApprovalWaitDuration mirrors record_approval_wait_duration.
func (r *Recorder) RecordApprovalWaitDuration(seconds float64) {
	r.approvalWaitSecs.Observe(seconds)
}

// RecordError mirrors record_error.
func (r *Recorder) RecordError(component, errorType string) {
	r.errorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateActiveIssues mirrors update_active_issues.
func (r *Recorder) UpdateActiveIssues(stage string, count int) {
	r.activeIssues.WithLabelValues(stage).Set(float64(count))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
