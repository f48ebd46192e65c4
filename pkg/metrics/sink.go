package metrics

import (
	"context"
	"sync"
)

// Sink wires a Recorder (Prometheus exposition) and a Calibrator
// (confidence-bucket tracking) together behind the narrow
// pkg/api.MetricsSink contract: JSON aggregate snapshots for the
// dashboard query endpoints, independent of /metrics' Prometheus text
// format. Every Record*/Update* call updates both the Prometheus series
// and this snapshot so the two views never drift apart.
type Sink struct {
	Recorder   *Recorder
	Calibrator *Calibrator

	mu                sync.Mutex
	decisionsTotal    int
	decisionsAccurate int
	actionsTotal      int
	actionsSuccess    int
	ticketsReceived   int
	ticketsDeflected  int
}

// NewSink builds a Sink over recorder and calibrator.
func NewSink(recorder *Recorder, calibrator *Calibrator) *Sink {
	return &Sink{Recorder: recorder, Calibrator: calibrator}
}

// RecordDecision updates both the Prometheus counter and the accuracy
// snapshot's denominator.
func (s *Sink) RecordDecision(actionType, riskLevel string, requiresApproval bool) {
	s.Recorder.RecordDecision(actionType, riskLevel, requiresApproval)
	s.mu.Lock()
	s.decisionsTotal++
	s.mu.Unlock()
}

// RecordDecisionAccuracy updates both the Prometheus counter and the
// running accuracy tally, and feeds the Calibrator so
// Calibration() reflects it.
func (s *Sink) RecordDecisionAccuracy(actionType string, confidence float64, accurate bool) {
	s.Recorder.RecordDecisionAccuracy(actionType, accurate)
	s.Calibrator.Observe(confidence, accurate)
	s.mu.Lock()
	if accurate {
		s.decisionsAccurate++
	}
	s.mu.Unlock()
}

// RecordActionExecuted updates both the Prometheus counter and the
// success-rate snapshot.
func (s *Sink) RecordActionExecuted(actionType string, success bool) {
	s.Recorder.RecordActionExecuted(actionType, success)
	s.mu.Lock()
	s.actionsTotal++
	if success {
		s.actionsSuccess++
	}
	s.mu.Unlock()
}

// RecordTicket updates both the Prometheus counters and the deflection
// snapshot. deflected implies received.
func (s *Sink) RecordTicket(source string, deflected bool) {
	s.Recorder.RecordTicketReceived(source)
	s.mu.Lock()
	s.ticketsReceived++
	if deflected {
		s.ticketsDeflected++
	}
	s.mu.Unlock()
	if deflected {
		s.Recorder.RecordTicketDeflected(source)
	}
}

// Performance implements pkg/api.MetricsSink.
func (s *Sink) Performance(_ context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"decisions_total":   s.decisionsTotal,
		"actions_total":     s.actionsTotal,
		"actions_succeeded": s.actionsSuccess,
		"action_success_rate": rate(s.actionsSuccess, s.actionsTotal),
	}, nil
}

// Deflection implements pkg/api.MetricsSink.
func (s *Sink) Deflection(_ context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"tickets_received":  s.ticketsReceived,
		"tickets_deflected": s.ticketsDeflected,
		"deflection_rate":   rate(s.ticketsDeflected, s.ticketsReceived),
	}, nil
}

// Calibration implements pkg/api.MetricsSink, reporting each confidence
// bucket's calibration error alongside the overall decision accuracy.
func (s *Sink) Calibration(_ context.Context) (map[string]any, error) {
	s.mu.Lock()
	accuracy := rate(s.decisionsAccurate, s.decisionsTotal)
	s.mu.Unlock()

	buckets := s.Calibrator.Snapshot()
	for bucket, errVal := range buckets {
		s.Recorder.UpdateConfidenceCalibrationError(bucket, errVal)
	}

	return map[string]any{
		"decision_accuracy_rate":    accuracy,
		"calibration_error_by_bucket": buckets,
	}, nil
}

func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
