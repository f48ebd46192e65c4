// Package cachestore wraps a Redis client for the three cache-backed
// concerns named across the spec: the Pattern Detector's pattern cache
// (§6 pattern_ttl), the Action Executor's per-merchant
// per-action-type rate-limit counters (§6 rate_limit_ttl), and the Signal
// Normalizer's degraded-mode signal buffer (§6 signal_buffer_ttl, grounded
// on the original's RedisSignalBuffer in graceful_degradation.py).
package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/migrationguard/core/pkg/models"
)

// Store wraps a *redis.Client with the three key families this core needs.
type Store struct {
	client *redis.Client
}

// New wraps an existing redis client, built by the caller from
// config.Config/environment (connection details are an external contract,
// not this package's concern).
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// patternKey matches spec.md §6's documented external cache contract,
// `pattern:{pattern_id}`, so tooling that inspects the cache directly can
// find a pattern without knowing this core's internal type/signature
// discriminators.
func patternKey(patternID string) string {
	return "pattern:" + patternID
}

// CachePattern stores pattern under its pattern_id key with ttl, letting
// repeated detection of the same pattern hit cache instead of re-running the
// similarity search.
func (s *Store) CachePattern(ctx context.Context, pattern models.Pattern, ttl time.Duration) error {
	data, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("cachestore: marshal pattern: %w", err)
	}
	if err := s.client.Set(ctx, patternKey(pattern.PatternID), data, ttl).Err(); err != nil {
		return models.Transient("cachestore.cache_pattern", err)
	}
	return nil
}

// GetPattern fetches a cached pattern by pattern_id, returning ok=false on a
// cache miss.
func (s *Store) GetPattern(ctx context.Context, patternID string) (pattern models.Pattern, ok bool, err error) {
	data, err := s.client.Get(ctx, patternKey(patternID)).Bytes()
	if err == redis.Nil {
		return models.Pattern{}, false, nil
	}
	if err != nil {
		return models.Pattern{}, false, models.Transient("cachestore.get_pattern", err)
	}
	if err := json.Unmarshal(data, &pattern); err != nil {
		return models.Pattern{}, false, fmt.Errorf("cachestore: unmarshal pattern: %w", err)
	}
	return pattern, true, nil
}

// rateLimitKey matches spec.md §6's `rate:{merchant}:{action}:{window}`
// contract. window is the fixed bucket width as formatted by time.Duration (e.g.
// "1m0s" for 60s), not a timestamp:
// this core resets the counter via TTL rather than windowed bucket ids, so
// the window component names the bucket the TTL enforces.
func rateLimitKey(merchantID string, actionType models.ActionType, window time.Duration) string {
	return fmt.Sprintf("rate:%s:%s:%s", merchantID, actionType, window)
}

// IncrRateLimit increments the per-merchant, per-action-type counter,
// setting window as the key's expiry on first increment only (INCR then
// EXPIRE NX), and returns the post-increment count. The Action Executor's
// RateLimiter consults this before running an action.
func (s *Store) IncrRateLimit(ctx context.Context, merchantID string, actionType models.ActionType, window time.Duration) (int64, error) {
	key := rateLimitKey(merchantID, actionType, window)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, models.Transient("cachestore.incr_rate_limit", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, models.Transient("cachestore.incr_rate_limit_expire", err)
		}
	}
	return count, nil
}

// RateLimitCount reads the current counter without incrementing it.
func (s *Store) RateLimitCount(ctx context.Context, merchantID string, actionType models.ActionType, window time.Duration) (int64, error) {
	v, err := s.client.Get(ctx, rateLimitKey(merchantID, actionType, window)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, models.Transient("cachestore.rate_limit_count", err)
	}
	return v, nil
}

const signalBufferKey = "signal_buffer:pending"

// BufferSignal pushes signal onto the degraded-mode buffer list, grounded on
// RedisSignalBuffer.buffer_signal: LPUSH then (re-)EXPIRE with ttl so the
// list never grows unbounded even if the event bus never recovers.
func (s *Store) BufferSignal(ctx context.Context, signal models.Signal, ttl time.Duration) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("cachestore: marshal signal: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, signalBufferKey, data)
	pipe.Expire(ctx, signalBufferKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Transient("cachestore.buffer_signal", err)
	}
	return nil
}

// DrainSignalBuffer pops every buffered signal (oldest first, matching the
// original's RPOP-until-empty flush loop) for replay onto the event bus once
// it recovers.
func (s *Store) DrainSignalBuffer(ctx context.Context) ([]models.Signal, error) {
	var signals []models.Signal
	for {
		data, err := s.client.RPop(ctx, signalBufferKey).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return signals, models.Transient("cachestore.drain_signal_buffer", err)
		}
		var sig models.Signal
		if err := json.Unmarshal(data, &sig); err != nil {
			continue // a malformed buffered entry should not abort the whole drain
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// BufferSize reports how many signals are currently buffered.
func (s *Store) BufferSize(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, signalBufferKey).Result()
	if err != nil {
		return 0, models.Transient("cachestore.buffer_size", err)
	}
	return n, nil
}

// AcquireCooldown sets an alert:cooldown:{rule} key for duration iff it does
// not already exist (SET NX), returning true if this call acquired it. Used
// by pkg/safemode/alerts.go to avoid re-notifying operators every time the
// same condition is re-observed within the cooldown window.
func (s *Store) AcquireCooldown(ctx context.Context, rule string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, "alert:cooldown:"+rule, 1, ttl).Result()
	if err != nil {
		return false, models.Transient("cachestore.acquire_cooldown", err)
	}
	return ok, nil
}
