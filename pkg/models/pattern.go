package models

import "time"

// PatternType is the closed set of pattern kinds, derived from the source
// of the pattern's constituent signals.
type PatternType string

const (
	PatternAPIFailure         PatternType = "api_failure"
	PatternCheckoutIssue      PatternType = "checkout_issue"
	PatternWebhookProblem     PatternType = "webhook_problem"
	PatternMigrationStage     PatternType = "migration_stage_issue"
	PatternConfigError        PatternType = "config_error"
)

// MaxPatternConfidence is the hard ceiling on Pattern.Confidence (§3).
const MaxPatternConfidence = 0.95

// Pattern is a correlation over >= min_pattern_frequency signals, identified
// by a content-derived id so repeated detection of the same discriminator
// updates rather than duplicates.
type Pattern struct {
	PatternID       string         `json:"pattern_id"`
	Type            PatternType    `json:"pattern_type"`
	SignalIDs       []string       `json:"signal_ids"`
	MerchantIDs     []string       `json:"merchant_ids"`
	FirstSeen       time.Time      `json:"first_seen"`
	LastSeen        time.Time      `json:"last_seen"`
	Confidence      float64        `json:"confidence"`
	Characteristics map[string]any `json:"characteristics,omitempty"`
}

// Frequency is the number of deduplicated constituent signals.
func (p *Pattern) Frequency() int {
	return len(p.SignalIDs)
}

// CrossMerchant reports whether characteristics.cross_merchant is set truthy.
func (p *Pattern) CrossMerchant() bool {
	if p.Characteristics == nil {
		return false
	}
	v, ok := p.Characteristics["cross_merchant"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// AddSignal appends a signal id (deduplicated) and advances LastSeen.
// Callers are responsible for recomputing Confidence under the pattern's
// monotonicity invariant before calling AddSignal again.
func (p *Pattern) AddSignal(signalID string, merchantID string, seenAt time.Time) {
	if !containsString(p.SignalIDs, signalID) {
		p.SignalIDs = append(p.SignalIDs, signalID)
	}
	if merchantID != "" && !containsString(p.MerchantIDs, merchantID) {
		p.MerchantIDs = append(p.MerchantIDs, merchantID)
	}
	if seenAt.After(p.LastSeen) {
		p.LastSeen = seenAt
	}
}

// ClampConfidence enforces the hard ceiling and the "only grows" invariant:
// the returned value is never lower than the pattern's current confidence.
func (p *Pattern) ClampConfidence(candidate float64) float64 {
	if candidate > MaxPatternConfidence {
		candidate = MaxPatternConfidence
	}
	if candidate < p.Confidence {
		return p.Confidence
	}
	return candidate
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
