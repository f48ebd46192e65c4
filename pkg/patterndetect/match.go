package patterndetect

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// Detector turns a batch of signals into Patterns, grounded on
// PatternDetector._detect_patterns_for_type/_create_cross_merchant_pattern/
// _create_frequency_pattern/_cluster_by_similarity.
type Detector struct {
	MinPatternFrequency int
	ClusterRadius       float64
}

// NewDetector builds a Detector from the component design's defaults
// (min_pattern_frequency=3, cluster_radius=0.3).
func NewDetector(minFrequency int, clusterRadius float64) *Detector {
	return &Detector{MinPatternFrequency: minFrequency, ClusterRadius: clusterRadius}
}

// AnalyzeSignals groups signals by source, then by error code within each
// source, building cross-merchant and frequency patterns per error code and
// clustering the leftover signals that carry no error code at all.
func (d *Detector) AnalyzeSignals(signals []models.Signal) []models.Pattern {
	if len(signals) == 0 {
		return nil
	}

	var patterns []models.Pattern
	for _, typeSignals := range groupBySource(signals) {
		if len(typeSignals) < d.MinPatternFrequency {
			continue
		}
		patterns = append(patterns, d.detectForType(typeSignals)...)
	}
	return patterns
}

func (d *Detector) detectForType(signals []models.Signal) []models.Pattern {
	var patterns []models.Pattern

	byCode := groupByErrorCode(signals)
	for errorCode, codeSignals := range byCode {
		if len(codeSignals) < d.MinPatternFrequency {
			continue
		}

		merchantIDs := uniqueMerchants(codeSignals)
		if len(merchantIDs) >= 2 {
			patterns = append(patterns, d.crossMerchantPattern(errorCode, codeSignals, merchantIDs))
		}
		patterns = append(patterns, d.frequencyPattern(errorCode, codeSignals))
	}

	var noCode []models.Signal
	for _, s := range signals {
		if s.ErrorCode == "" {
			noCode = append(noCode, s)
		}
	}
	if len(noCode) >= d.MinPatternFrequency {
		patterns = append(patterns, d.clusterBySimilarity(noCode)...)
	}

	return patterns
}

func (d *Detector) crossMerchantPattern(errorCode string, signals []models.Signal, merchantIDs []string) models.Pattern {
	confidence := 0.6 + float64(len(merchantIDs))*0.05 + float64(len(signals))*0.02
	if confidence > models.MaxPatternConfidence {
		confidence = models.MaxPatternConfidence
	}

	p := models.Pattern{
		PatternID:   generatePatternID("cross_merchant_" + string(signals[0].Source) + "_" + errorCode),
		Type:        mapSourceToPatternType(signals[0].Source),
		Confidence:  confidence,
		SignalIDs:   signalIDs(signals),
		MerchantIDs: merchantIDs,
		FirstSeen:   earliest(signals),
		LastSeen:    latest(signals),
		Characteristics: map[string]any{
			"error_code":         errorCode,
			"cross_merchant":     true,
			"merchant_count":     len(merchantIDs),
			"affected_resources": uniqueResources(signals),
		},
	}
	return p
}

func (d *Detector) frequencyPattern(errorCode string, signals []models.Signal) models.Pattern {
	confidence := 0.5 + float64(len(signals))*0.05
	if confidence > 0.9 {
		confidence = 0.9
	}

	p := models.Pattern{
		PatternID:   generatePatternID("frequency_" + string(signals[0].Source) + "_" + errorCode),
		Type:        mapSourceToPatternType(signals[0].Source),
		Confidence:  confidence,
		SignalIDs:   signalIDs(signals),
		MerchantIDs: uniqueMerchants(signals),
		FirstSeen:   earliest(signals),
		LastSeen:    latest(signals),
		Characteristics: map[string]any{
			"error_code":        errorCode,
			"frequency_based":   true,
			"time_span_minutes": latest(signals).Sub(earliest(signals)).Minutes(),
		},
	}
	return p
}

func generatePatternID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "pattern_" + hex.EncodeToString(sum[:])[:16]
}

func mapSourceToPatternType(source models.Source) models.PatternType {
	switch source {
	case models.SourceAPIFailure:
		return models.PatternAPIFailure
	case models.SourceCheckoutError:
		return models.PatternCheckoutIssue
	case models.SourceWebhookFailure:
		return models.PatternWebhookProblem
	case models.SourceSupportTicket:
		return models.PatternMigrationStage
	default:
		return models.PatternConfigError
	}
}

func groupBySource(signals []models.Signal) map[models.Source][]models.Signal {
	grouped := make(map[models.Source][]models.Signal)
	for _, s := range signals {
		grouped[s.Source] = append(grouped[s.Source], s)
	}
	return grouped
}

func groupByErrorCode(signals []models.Signal) map[string][]models.Signal {
	grouped := make(map[string][]models.Signal)
	for _, s := range signals {
		if s.ErrorCode != "" {
			grouped[s.ErrorCode] = append(grouped[s.ErrorCode], s)
		}
	}
	return grouped
}

func uniqueMerchants(signals []models.Signal) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range signals {
		if s.MerchantID != "" && !seen[s.MerchantID] {
			seen[s.MerchantID] = true
			out = append(out, s.MerchantID)
		}
	}
	return out
}

func uniqueResources(signals []models.Signal) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range signals {
		if s.AffectedResource != "" && !seen[s.AffectedResource] {
			seen[s.AffectedResource] = true
			out = append(out, s.AffectedResource)
		}
	}
	return out
}

func signalIDs(signals []models.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.SignalID
	}
	return out
}

func earliest(signals []models.Signal) time.Time {
	min := signals[0].Timestamp
	for _, s := range signals[1:] {
		if s.Timestamp.Before(min) {
			min = s.Timestamp
		}
	}
	return min
}

func latest(signals []models.Signal) time.Time {
	max := signals[0].Timestamp
	for _, s := range signals[1:] {
		if s.Timestamp.After(max) {
			max = s.Timestamp
		}
	}
	return max
}
