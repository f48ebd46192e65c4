package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversToAllGroups(t *testing.T) {
	bus := NewMemoryBus()
	var mu sync.Mutex
	var detectorGot, orchestratorGot string

	require.NoError(t, bus.Subscribe(context.Background(), TopicSignalsNormalized, GroupPatternDetector, func(_ context.Context, key string, record []byte) error {
		mu.Lock()
		detectorGot = string(record)
		mu.Unlock()
		return nil
	}))
	require.NoError(t, bus.Subscribe(context.Background(), TopicSignalsNormalized, GroupOrchestrator, func(_ context.Context, key string, record []byte) error {
		mu.Lock()
		orchestratorGot = string(record)
		mu.Unlock()
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), TopicSignalsNormalized, "merchant-1", []byte(`{"signal_id":"s1"}`)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `{"signal_id":"s1"}`, detectorGot)
	assert.Equal(t, `{"signal_id":"s1"}`, orchestratorGot)
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	assert.NoError(t, bus.Publish(context.Background(), TopicPatternsDetected, "k", []byte("{}")))
}
