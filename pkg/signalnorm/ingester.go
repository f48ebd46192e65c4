package signalnorm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/migrationguard/core/pkg/api"
	"github.com/migrationguard/core/pkg/cachestore"
	"github.com/migrationguard/core/pkg/circuitbreaker"
	"github.com/migrationguard/core/pkg/eventbus"
	"github.com/migrationguard/core/pkg/models"
)

// DegradationReporter is the narrow interface signalnorm calls through to
// flag the event bus as degraded; pkg/degradation.Manager satisfies it.
type DegradationReporter interface {
	SetDegraded(service string, degraded bool)
}

// Ingester turns a raw submission into a normalized Signal and publishes it
// to signals.normalized, satisfying pkg/api's SignalIngester interface. When
// the event bus is unavailable it falls back to buffering the signal in
// Redis (graceful_degradation.py's RedisSignalBuffer) rather than dropping it.
type Ingester struct {
	normalizer  *Normalizer
	bus         eventbus.Bus
	buffer      *cachestore.Store
	breakers    *circuitbreaker.Manager
	degradation DegradationReporter
	bufferTTL   time.Duration
	logger      *slog.Logger
}

// NewIngester builds an Ingester. degradation may be nil if no reporter is
// wired (degradation tracking then simply doesn't happen).
func NewIngester(normalizer *Normalizer, bus eventbus.Bus, buffer *cachestore.Store, breakers *circuitbreaker.Manager, degradation DegradationReporter, bufferTTL time.Duration) *Ingester {
	return &Ingester{
		normalizer:  normalizer,
		bus:         bus,
		buffer:      buffer,
		breakers:    breakers,
		degradation: degradation,
		bufferTTL:   bufferTTL,
		logger:      slog.Default().With("component", "signalnorm"),
	}
}

// Ingest implements api.SignalIngester.
func (ing *Ingester) Ingest(ctx context.Context, source string, req api.SubmitSignalRequest) (string, error) {
	raw := requestToRaw(source, req)

	signal, err := ing.normalizer.Normalize(source, raw)
	if err != nil {
		return "", err
	}

	if err := ing.publish(ctx, signal); err != nil {
		return "", err
	}

	return signal.SignalID, nil
}

func (ing *Ingester) publish(ctx context.Context, signal models.Signal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("signalnorm: marshal signal: %w", err)
	}

	_, err = circuitbreaker.Execute(ctx, ing.breakers, "event_bus", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ing.bus.Publish(ctx, eventbus.TopicSignalsNormalized, signal.MerchantID, data)
	})
	if err == nil {
		ing.setDegraded(false)
		return nil
	}

	ing.logger.Warn("event bus publish failed, buffering signal", "signal_id", signal.SignalID, "error", err)
	ing.setDegraded(true)

	if ing.buffer == nil {
		return models.Transient("signalnorm.publish", err)
	}
	if bufErr := ing.buffer.BufferSignal(ctx, signal, ing.bufferTTL); bufErr != nil {
		return fmt.Errorf("signalnorm: publish failed (%v) and buffering failed: %w", err, bufErr)
	}
	return nil
}

func (ing *Ingester) setDegraded(degraded bool) {
	if ing.degradation != nil {
		ing.degradation.SetDegraded("event_bus", degraded)
	}
}

// DrainBuffer replays every buffered signal onto the event bus. Nothing in
// this module calls it: neither pkg/degradation nor cmd/core triggers a
// drain when the event bus recovers.
func (ing *Ingester) DrainBuffer(ctx context.Context) (int, error) {
	if ing.buffer == nil {
		return 0, nil
	}
	signals, err := ing.buffer.DrainSignalBuffer(ctx)
	if err != nil {
		return 0, err
	}
	flushed := 0
	for _, signal := range signals {
		if err := ing.publish(ctx, signal); err != nil {
			return flushed, err
		}
		flushed++
	}
	if flushed > 0 {
		ing.logger.Info("flushed buffered signals to event bus", "count", flushed)
	}
	return flushed, nil
}

func requestToRaw(source string, req api.SubmitSignalRequest) map[string]any {
	raw := map[string]any{
		"merchant_id":      req.MerchantID,
		"migration_stage":  req.MigrationStage,
		"affected_resource": req.AffectedResource,
		"error_code":       req.ErrorCode,
		"error_message":    req.ErrorMessage,
	}
	for k, v := range req.RawData {
		raw[k] = v
	}
	if req.Context != nil {
		raw["context"] = req.Context
	}
	if req.Severity != "" {
		raw["severity"] = req.Severity
	}

	switch source {
	case "api_failure":
		raw["endpoint"] = req.AffectedResource
	case "checkout_error":
		raw["cart_id"] = req.AffectedResource
	case "webhook_failure":
		raw["webhook_url"] = req.AffectedResource
	}
	return raw
}
