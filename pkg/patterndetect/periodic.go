package patterndetect

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/migrationguard/core/pkg/eventbus"
	"github.com/migrationguard/core/pkg/models"
)

// Runner consumes signals.normalized into a Window and periodically runs
// the Detector against the accumulated window, publishing whatever Patterns
// it finds. This generalizes the original's worker/pattern_detection_worker.py
// polling loop into an event-driven subscribe plus a ticker.
type Runner struct {
	window    *Window
	detector  *Detector
	publisher *Publisher
	interval  time.Duration
	logger    *slog.Logger
}

// NewRunner builds a Runner.
func NewRunner(window *Window, detector *Detector, publisher *Publisher, interval time.Duration) *Runner {
	return &Runner{
		window:    window,
		detector:  detector,
		publisher: publisher,
		interval:  interval,
		logger:    slog.Default().With("component", "patterndetect-runner"),
	}
}

// Subscribe registers the window-fill handler on the event bus under the
// fixed pattern-detector consumer group.
func (r *Runner) Subscribe(ctx context.Context, bus eventbus.Bus) error {
	return bus.Subscribe(ctx, eventbus.TopicSignalsNormalized, eventbus.GroupPatternDetector, r.handleSignal)
}

func (r *Runner) handleSignal(ctx context.Context, key string, record []byte) error {
	var signal models.Signal
	if err := json.Unmarshal(record, &signal); err != nil {
		r.logger.Error("failed to decode signal for pattern detection", "error", err)
		return nil // a malformed record is not retryable
	}
	r.window.Add(signal)
	return nil
}

// Run blocks, re-analyzing the window every interval until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.analyzeOnce(ctx)
		}
	}
}

func (r *Runner) analyzeOnce(ctx context.Context) {
	signals := r.window.Snapshot()
	if len(signals) == 0 {
		return
	}

	patterns := r.detector.AnalyzeSignals(signals)
	if len(patterns) == 0 {
		return
	}

	r.logger.Info("pattern detection pass completed", "signals", len(signals), "patterns", len(patterns))
	for _, p := range patterns {
		if err := r.publisher.Publish(ctx, p); err != nil {
			r.logger.Error("failed to publish pattern", "pattern_id", p.PatternID, "error", err)
		}
	}
}
