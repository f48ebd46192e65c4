package patterndetect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/migrationguard/core/pkg/cachestore"
	"github.com/migrationguard/core/pkg/circuitbreaker"
	"github.com/migrationguard/core/pkg/eventbus"
	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/searchstore"
)

// DegradationReporter mirrors signalnorm's narrow interface for the
// search_index dependency.
type DegradationReporter interface {
	SetDegraded(service string, degraded bool)
}

// Publisher persists newly detected/updated Patterns into the search index
// and pattern cache and announces them on patterns.detected, matching
// PatternDetector's index_document-then-nothing-else publication shape
// (the original has no separate "announce to Kafka" step for patterns; this
// core adds one, though no component in this module subscribes to
// patterns.detected).
type Publisher struct {
	bus         eventbus.Bus
	index       *searchstore.Store
	cache       *cachestore.Store
	breakers    *circuitbreaker.Manager
	degradation DegradationReporter
	patternTTL  time.Duration
	logger      *slog.Logger
}

// NewPublisher builds a Publisher.
func NewPublisher(bus eventbus.Bus, index *searchstore.Store, cache *cachestore.Store, breakers *circuitbreaker.Manager, degradation DegradationReporter, patternTTL time.Duration) *Publisher {
	return &Publisher{
		bus:         bus,
		index:       index,
		cache:       cache,
		breakers:    breakers,
		degradation: degradation,
		patternTTL:  patternTTL,
		logger:      slog.Default().With("component", "patterndetect"),
	}
}

// Publish indexes pattern (search_index breaker, degradation-tracked),
// caches it, and announces it on patterns.detected.
func (p *Publisher) Publish(ctx context.Context, pattern models.Pattern) error {
	signature := patternSignature(pattern)

	_, err := circuitbreaker.Execute(ctx, p.breakers, "search_index", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.index.Index(pattern, signature)
	})
	if err != nil {
		p.logger.Error("failed to index pattern", "pattern_id", pattern.PatternID, "error", err)
		p.setDegraded(true)
	} else {
		p.setDegraded(false)
	}

	if p.cache != nil {
		if cacheErr := p.cache.CachePattern(ctx, pattern, p.patternTTL); cacheErr != nil {
			p.logger.Warn("failed to cache pattern", "pattern_id", pattern.PatternID, "error", cacheErr)
		}
	}

	data, marshalErr := json.Marshal(pattern)
	if marshalErr != nil {
		return fmt.Errorf("patterndetect: marshal pattern: %w", marshalErr)
	}
	key := ""
	if len(pattern.MerchantIDs) > 0 {
		key = pattern.MerchantIDs[0]
	}
	if pubErr := p.bus.Publish(ctx, eventbus.TopicPatternsDetected, key, data); pubErr != nil {
		return models.Transient("patterndetect.publish", pubErr)
	}

	p.logger.Info("pattern published", "pattern_id", pattern.PatternID, "type", pattern.Type, "frequency", pattern.Frequency())
	return nil
}

func (p *Publisher) setDegraded(degraded bool) {
	if p.degradation != nil {
		p.degradation.SetDegraded("search_index", degraded)
	}
}

// patternSignature derives the similarity-search discriminator text from a
// pattern's characteristics: the error code if present, else the synthetic
// seed used to build its pattern_id.
func patternSignature(pattern models.Pattern) string {
	if pattern.Characteristics != nil {
		if code, ok := pattern.Characteristics["error_code"].(string); ok && code != "" {
			return string(pattern.Type) + " " + code
		}
	}
	return string(pattern.Type) + " " + pattern.PatternID
}
