package patterndetect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/migrationguard/core/pkg/models"
)

func TestWindow_PrunesOldSignals(t *testing.T) {
	w := NewWindow(2 * time.Minute)
	base := time.Now()
	w.now = func() time.Time { return base }

	w.Add(models.Signal{SignalID: "old", Timestamp: base.Add(-10 * time.Minute)})
	w.Add(models.Signal{SignalID: "fresh", Timestamp: base.Add(-time.Minute)})

	snap := w.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, "fresh", snap[0].SignalID)
}

func TestWindow_LenReflectsPruning(t *testing.T) {
	w := NewWindow(time.Minute)
	base := time.Now()
	w.now = func() time.Time { return base }

	w.Add(models.Signal{SignalID: "a", Timestamp: base})
	assert.Equal(t, 1, w.Len())

	w.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.Equal(t, 0, w.Len())
}
