// Package safemode implements the system-wide interlock that stops all
// automated action execution and queues decisions for human approval once
// tripped. Grounded on safe_mode.py.
package safemode

import (
	"sync"
	"time"
)

// Reason is the closed set of safe mode activation causes.
type Reason string

const (
	ReasonCriticalError      Reason = "critical_error"
	ReasonAnomalousBehavior  Reason = "anomalous_behavior"
	ReasonConfidenceDrift    Reason = "confidence_drift"
	ReasonExcessiveActions   Reason = "excessive_actions"
	ReasonManualActivation   Reason = "manual_activation"
	ReasonDatabaseFailure    Reason = "database_failure"
	ReasonEventBusFailure    Reason = "event_bus_failure"
	ReasonLLMAPIFailure      Reason = "llm_api_failure"
)

// Status is a point-in-time snapshot of safe mode state, returned by
// Manager.Status for the orchestrator/API to surface to operators.
type Status struct {
	Active             bool
	ActivationTime     time.Time
	ActivationReason   Reason
	ActivationContext  map[string]any
	DeactivationTime    time.Time
	DeactivatedBy       string
	DurationSeconds     float64
}

// Manager coordinates safe mode activation, deactivation, and state
// tracking behind a sync.RWMutex-guarded snapshot, per §4.9.
type Manager struct {
	mu sync.RWMutex

	active            bool
	activationTime    time.Time
	activationReason  Reason
	activationContext map[string]any
	deactivationTime  time.Time
	deactivatedBy     string

	now func() time.Time
}

// NewManager returns an inactive Manager.
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Activate trips safe mode for reason, attaching context for operators.
// A no-op if already active (the original logs and returns rather than
// overwriting the existing activation).
func (m *Manager) Activate(reason Reason, context map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return
	}
	m.active = true
	m.activationTime = m.now().UTC()
	m.activationReason = reason
	m.activationContext = context
	m.deactivationTime = time.Time{}
	m.deactivatedBy = ""
}

// Deactivate requires an explicit operator_id (manual intervention is the
// only way out, per §4.9/safe_mode.py's docstring). Returns false if safe
// mode was not active.
func (m *Manager) Deactivate(operatorID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return false
	}
	m.active = false
	m.deactivationTime = m.now().UTC()
	m.deactivatedBy = operatorID
	return true
}

// IsActive reports whether safe mode is currently tripped. Satisfies the
// SafeModeChecker interfaces in pkg/decision and pkg/executor.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// ActivationReason returns the current reason, or "" if inactive.
func (m *Manager) ActivationReason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return ""
	}
	return string(m.activationReason)
}

// ActivationContext returns the current activation's context, or nil if
// inactive.
func (m *Manager) ActivationContext() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return nil
	}
	return m.activationContext
}

// Status returns a full snapshot for operator-facing surfaces.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		Active:            m.active,
		ActivationTime:    m.activationTime,
		ActivationReason:  m.activationReason,
		ActivationContext: m.activationContext,
	}
	if !m.active && !m.deactivationTime.IsZero() {
		s.DeactivationTime = m.deactivationTime
		s.DeactivatedBy = m.deactivatedBy
		if !m.activationTime.IsZero() {
			s.DurationSeconds = m.deactivationTime.Sub(m.activationTime).Seconds()
		}
	}
	return s
}
