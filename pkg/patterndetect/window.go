// Package patterndetect implements the Pattern Detector component (§4.2):
// sliding-window correlation of normalized signals into Patterns, grounded
// on PatternDetector in the original's pattern_detector.py. Elasticsearch is
// replaced by pkg/searchstore (bleve) per the component design; DBSCAN/
// TF-IDF clustering (originally scikit-learn) is reimplemented by hand since
// no clustering library appears anywhere in the example pack.
package patterndetect

import (
	"sync"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// Window is a sliding buffer of recently observed signals, pruned to the
// configured window on every Add. One Window is shared across all signal
// types; callers group by type/error code downstream.
type Window struct {
	mu       sync.Mutex
	size     time.Duration
	signals  []models.Signal
	now      func() time.Time
}

// NewWindow builds a Window covering the last `size` of wall-clock time.
func NewWindow(size time.Duration) *Window {
	return &Window{size: size, now: time.Now}
}

// Add appends signal and prunes anything older than the window size.
func (w *Window) Add(signal models.Signal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signals = append(w.signals, signal)
	w.prune()
}

// Snapshot returns a copy of the signals currently within the window,
// pruning first.
func (w *Window) Snapshot() []models.Signal {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	out := make([]models.Signal, len(w.signals))
	copy(out, w.signals)
	return out
}

func (w *Window) prune() {
	cutoff := w.now().Add(-w.size)
	kept := w.signals[:0]
	for _, s := range w.signals {
		if s.Timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}
	w.signals = kept
}

// Len reports the number of signals currently in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.signals)
}
