package safemode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ActivateDeactivate(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsActive())

	m.Activate(ReasonManualActivation, map[string]any{"note": "drill"})
	assert.True(t, m.IsActive())
	assert.Equal(t, string(ReasonManualActivation), m.ActivationReason())
	assert.Equal(t, "drill", m.ActivationContext()["note"])

	ok := m.Deactivate("operator-1")
	require.True(t, ok)
	assert.False(t, m.IsActive())
	assert.Equal(t, "", m.ActivationReason())
}

func TestManager_ActivateIsNoOpWhenAlreadyActive(t *testing.T) {
	m := NewManager()
	m.Activate(ReasonCriticalError, map[string]any{"n": 1})
	m.Activate(ReasonManualActivation, map[string]any{"n": 2})

	assert.Equal(t, string(ReasonCriticalError), m.ActivationReason())
	assert.Equal(t, 1, m.ActivationContext()["n"])
}

func TestManager_DeactivateWhenNotActiveReturnsFalse(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Deactivate("operator-1"))
}

func TestManager_StatusReportsDeactivationDuration(t *testing.T) {
	m := NewManager()
	start := time.Unix(1700000000, 0)
	elapsed := start.Add(90 * time.Second)
	calls := 0
	m.now = func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return elapsed
	}

	m.Activate(ReasonExcessiveActions, nil)
	require.True(t, m.Deactivate("operator-9"))

	status := m.Status()
	assert.False(t, status.Active)
	assert.Equal(t, "operator-9", status.DeactivatedBy)
	assert.InDelta(t, 90.0, status.DurationSeconds, 0.001)
}

func TestDetector_CheckCriticalErrorKnownType(t *testing.T) {
	m := NewManager()
	d := NewDetector(m)

	tripped := d.CheckCriticalError("database_connection_failure", "connection refused", nil)
	assert.True(t, tripped)
	assert.True(t, m.IsActive())
	assert.Equal(t, string(ReasonDatabaseFailure), m.ActivationReason())
}

func TestDetector_CheckCriticalErrorUnknownTypeDoesNotTrip(t *testing.T) {
	m := NewManager()
	d := NewDetector(m)

	tripped := d.CheckCriticalError("some_other_error", "whatever", nil)
	assert.False(t, tripped)
	assert.False(t, m.IsActive())
}

func TestDetector_CheckConfidenceDrift(t *testing.T) {
	m := NewManager()
	d := NewDetector(m)

	assert.False(t, d.CheckConfidenceDrift(0.9, 0.88, 0))
	assert.False(t, m.IsActive())

	tripped := d.CheckConfidenceDrift(0.9, 0.70, 0)
	assert.True(t, tripped)
	assert.True(t, m.IsActive())
}

func TestDetector_CheckExcessiveActions(t *testing.T) {
	m := NewManager()
	d := NewDetector(m)

	assert.False(t, d.CheckExcessiveActions("temporary_mitigation", "merchant-1", 15, 5, 0))
	assert.True(t, d.CheckExcessiveActions("temporary_mitigation", "merchant-1", 25, 5, 0))
	assert.True(t, m.IsActive())
	assert.Equal(t, string(ReasonExcessiveActions), m.ActivationReason())
}

func TestDetector_CheckAnomalousBehaviorAlwaysTrips(t *testing.T) {
	m := NewManager()
	d := NewDetector(m)

	tripped := d.CheckAnomalousBehavior("unexpected_pattern", "agent output diverged", map[string]any{"score": 0.2})
	assert.True(t, tripped)
	assert.Equal(t, string(ReasonAnomalousBehavior), m.ActivationReason())
	assert.Equal(t, 0.2, m.ActivationContext()["score"])
}
