package signalnorm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/api"
	"github.com/migrationguard/core/pkg/circuitbreaker"
	"github.com/migrationguard/core/pkg/eventbus"
	"github.com/migrationguard/core/pkg/models"
)

type recordingDegradation struct {
	service string
	degraded bool
	calls   int
}

func (r *recordingDegradation) SetDegraded(service string, degraded bool) {
	r.service, r.degraded = service, degraded
	r.calls++
}

func TestIngester_Ingest_PublishesNormalizedSignal(t *testing.T) {
	bus := eventbus.NewMemoryBus()

	var received []byte
	require.NoError(t, bus.Subscribe(context.Background(), eventbus.TopicSignalsNormalized, eventbus.GroupPatternDetector,
		func(ctx context.Context, key string, record []byte) error {
			received = record
			return nil
		}))

	breakers := circuitbreaker.NewManager(gobreaker.Settings{})
	deg := &recordingDegradation{}
	ing := NewIngester(New(), bus, nil, breakers, deg, time.Hour)

	req := api.SubmitSignalRequest{
		MerchantID:       "merchant-1",
		AffectedResource: "/v1/orders",
		ErrorCode:        "503",
	}
	signalID, err := ing.Ingest(context.Background(), "api_failure", req)
	require.NoError(t, err)
	assert.NotEmpty(t, signalID)
	require.NotNil(t, received)

	var signal models.Signal
	require.NoError(t, json.Unmarshal(received, &signal))
	assert.Equal(t, signalID, signal.SignalID)
	assert.Equal(t, "merchant-1", signal.MerchantID)
	assert.False(t, deg.degraded)
}

func TestIngester_Ingest_RejectsUnsupportedSource(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	breakers := circuitbreaker.NewManager(gobreaker.Settings{})
	ing := NewIngester(New(), bus, nil, breakers, nil, time.Hour)

	_, err := ing.Ingest(context.Background(), "unknown_source", api.SubmitSignalRequest{MerchantID: "m"})
	require.ErrorIs(t, err, models.ErrUnsupportedSource)
}
