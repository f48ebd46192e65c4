package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// RateLimitCounter is the narrow slice of pkg/cachestore.Store the rate
// limiter needs: an atomic increment-and-check plus a read-only count,
// backing the compare-and-set-per-window scheme spec.md §4.6/§5 describe.
// No original_source file covers this (rate_limiter.py does not exist in
// the retrieved pack) — designed directly from spec.md's prose contract.
type RateLimitCounter interface {
	IncrRateLimit(ctx context.Context, merchantID string, actionType models.ActionType, window time.Duration) (int64, error)
	RateLimitCount(ctx context.Context, merchantID string, actionType models.ActionType, window time.Duration) (int64, error)
}

// RateLimiter enforces a per-(merchant, action_type) fixed-window limit (the
// window starts at the pair's first counted action and expires after window)
// and flags (without rejecting) merchants crossing an excessive-actions
// threshold.
type RateLimiter struct {
	counter                   RateLimitCounter
	window                    time.Duration
	defaultLimit              int
	limits                    map[models.ActionType]int
	excessiveActionsThreshold int
}

// NewRateLimiter builds a RateLimiter. limits overrides defaultLimit for
// specific action types.
func NewRateLimiter(counter RateLimitCounter, window time.Duration, defaultLimit int, limits map[models.ActionType]int, excessiveActionsThreshold int) *RateLimiter {
	return &RateLimiter{
		counter:                   counter,
		window:                    window,
		defaultLimit:              defaultLimit,
		limits:                    limits,
		excessiveActionsThreshold: excessiveActionsThreshold,
	}
}

func (r *RateLimiter) limitFor(actionType models.ActionType) int {
	if limit, ok := r.limits[actionType]; ok {
		return limit
	}
	return r.defaultLimit
}

// Check increments the counter and reports whether the action is allowed
// under the configured limit, along with the count observed and the limit
// it was checked against. When the window is exceeded, the counter is NOT
// incremented (matching spec.md §4.6: "reject without increment").
func (r *RateLimiter) Check(ctx context.Context, merchantID string, actionType models.ActionType) (allowed bool, count int64, limit int, err error) {
	limit = r.limitFor(actionType)

	current, err := r.counter.RateLimitCount(ctx, merchantID, actionType, r.window)
	if err != nil {
		return false, 0, limit, fmt.Errorf("failed to read rate limit count: %w", err)
	}
	if int(current) >= limit {
		return false, current, limit, nil
	}

	count, err = r.counter.IncrRateLimit(ctx, merchantID, actionType, r.window)
	if err != nil {
		return false, 0, limit, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	return true, count, limit, nil
}

// FlagExcessiveActions reports whether merchantID has crossed the
// excessive-actions threshold for actionType in the current window. This
// never rejects the action — callers only log it, per action_executor.py's
// "should_flag" being advisory.
func (r *RateLimiter) FlagExcessiveActions(ctx context.Context, merchantID string, actionType models.ActionType) (bool, int64, error) {
	current, err := r.counter.RateLimitCount(ctx, merchantID, actionType, r.window)
	if err != nil {
		return false, 0, fmt.Errorf("failed to read rate limit count: %w", err)
	}
	return int(current) >= r.excessiveActionsThreshold, current, nil
}
