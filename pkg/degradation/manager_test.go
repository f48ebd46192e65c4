package degradation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_StartsHealthy(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsDegraded(ServiceLLM))
	assert.False(t, m.IsDegraded(ServiceSearchIndex))
	assert.False(t, m.IsDegraded(ServiceEventBus))
	assert.False(t, m.IsAnyDegraded())
}

func TestManager_SetDegradedTransitions(t *testing.T) {
	m := NewManager()

	m.SetDegraded(ServiceLLM, true)
	assert.True(t, m.IsDegraded(ServiceLLM))
	assert.True(t, m.IsAnyDegraded())

	m.SetDegraded(ServiceLLM, false)
	assert.False(t, m.IsDegraded(ServiceLLM))
	assert.False(t, m.IsAnyDegraded())
}

func TestManager_UnknownServiceIsNoOp(t *testing.T) {
	m := NewManager()
	m.SetDegraded("not_a_real_service", true)
	assert.False(t, m.IsDegraded("not_a_real_service"))
}

func TestManager_StatusReturnsIndependentCopy(t *testing.T) {
	m := NewManager()
	m.SetDegraded(ServiceEventBus, true)

	status := m.Status()
	assert.True(t, status[ServiceEventBus])
	assert.False(t, status[ServiceLLM])

	status[ServiceLLM] = true
	assert.False(t, m.IsDegraded(ServiceLLM), "mutating the returned map must not affect internal state")
}
