package patterndetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBSCAN_GroupsDensePointsAndFlagsNoise(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1}, // dense cluster near origin
		{10, 10}, // isolated noise point
	}

	labels := dbscan(vectors, 0.5, 3)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.NotEqual(t, -1, labels[0])
	assert.Equal(t, -1, labels[3])
}

func TestDBSCAN_AllNoiseWhenBelowMinSamples(t *testing.T) {
	vectors := [][]float64{{0, 0}, {0.1, 0}}
	labels := dbscan(vectors, 0.5, 3)
	for _, l := range labels {
		assert.Equal(t, -1, l)
	}
}

func TestTfidfVectors_SimilarMessagesAreCloseInEuclideanSpace(t *testing.T) {
	messages := []string{
		"webhook signature verification failed",
		"webhook signature verification failing",
		"completely unrelated billing dispute message",
	}
	vecs := tfidfVectors(messages, 100)
	assert.Len(t, vecs, 3)

	dSimilar := euclidean(vecs[0], vecs[1])
	dDifferent := euclidean(vecs[0], vecs[2])
	assert.Less(t, dSimilar, dDifferent)
}
