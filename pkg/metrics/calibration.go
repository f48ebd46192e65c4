package metrics

import (
	"fmt"
	"sync"
)

// bucketWidth buckets confidence scores into ten deciles (0.0-0.1,
// 0.1-0.2, ..., 0.9-1.0), matching confidence_scores' histogram buckets.
const bucketWidth = 0.1

// bucketStats accumulates the running mean predicted confidence and
// observed accuracy for one confidence decile.
type bucketStats struct {
	count          int
	confidenceSum  float64
	accurateCount  int
}

// Calibrator tracks, per confidence bucket, how well predicted confidence
// matches observed outcome accuracy over time, feeding
// Recorder.UpdateConfidenceCalibrationError. Supplements the distilled
// spec's decision/risk model with the calibration tracking
// metrics_exporter.py's confidence_calibration_error gauge implies but
// never itself computes (the original only exposes the setter; nothing
// in the original populates it either, so this is where that
// computation actually lives).
type Calibrator struct {
	mu      sync.Mutex
	buckets map[string]*bucketStats
}

// NewCalibrator builds an empty Calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{buckets: make(map[string]*bucketStats)}
}

// Bucket labels confidence with its decile, e.g. 0.82 -> "0.8-0.9".
func Bucket(confidence float64) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	lower := float64(int(confidence/bucketWidth)) * bucketWidth
	if lower >= 1.0 {
		lower = 0.9
	}
	return fmt.Sprintf("%.1f-%.1f", lower, lower+bucketWidth)
}

// Observe records one prediction's confidence and whether it was
// subsequently judged accurate (by human approval feedback, or by an
// action's success/failure outcome).
func (c *Calibrator) Observe(confidence float64, accurate bool) {
	bucket := Bucket(confidence)

	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[bucket]
	if !ok {
		b = &bucketStats{}
		c.buckets[bucket] = b
	}
	b.count++
	b.confidenceSum += confidence
	if accurate {
		b.accurateCount++
	}
}

// CalibrationError returns the absolute difference between a bucket's
// mean predicted confidence and its observed accuracy rate, along with
// whether the bucket has any observations yet. A well-calibrated model
// has this near zero in every bucket (a bucket of 0.8-0.9 predictions
// should be right about 80-90% of the time).
func (c *Calibrator) CalibrationError(bucket string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[bucket]
	if !ok || b.count == 0 {
		return 0, false
	}
	meanConfidence := b.confidenceSum / float64(b.count)
	accuracyRate := float64(b.accurateCount) / float64(b.count)
	diff := meanConfidence - accuracyRate
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

// Snapshot returns the calibration error for every bucket observed so
// far, keyed by bucket label, for export through
// Recorder.UpdateConfidenceCalibrationError.
func (c *Calibrator) Snapshot() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]float64, len(c.buckets))
	for bucket, b := range c.buckets {
		if b.count == 0 {
			continue
		}
		meanConfidence := b.confidenceSum / float64(b.count)
		accuracyRate := float64(b.accurateCount) / float64(b.count)
		diff := meanConfidence - accuracyRate
		if diff < 0 {
			diff = -diff
		}
		out[bucket] = diff
	}
	return out
}
