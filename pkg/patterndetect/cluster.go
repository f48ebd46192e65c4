package patterndetect

import (
	"math"
	"sort"
	"strconv"

	"github.com/migrationguard/core/pkg/models"
)

// clusterBySimilarity groups signals whose error_message lacks an error code
// by character n-gram similarity, grounded on
// PatternDetector._cluster_by_similarity / _extract_text_features: the
// original vectorizes with scikit-learn's TfidfVectorizer(char, 3-5-grams,
// max_features=100) and clusters with DBSCAN(eps=0.3, min_samples=3). No
// clustering or TF-IDF library appears anywhere in the example pack, so both
// are reimplemented here directly rather than reached for out of the
// standard library's math/sort.
func (d *Detector) clusterBySimilarity(signals []models.Signal) []models.Pattern {
	if len(signals) < d.MinPatternFrequency {
		return nil
	}

	messages := make([]string, len(signals))
	for i, s := range signals {
		messages[i] = s.ErrorMessage
	}

	vectors := tfidfVectors(messages, 100)
	labels := dbscan(vectors, d.ClusterRadius, d.MinPatternFrequency)

	clusters := map[int][]models.Signal{}
	for i, label := range labels {
		if label == -1 {
			continue // noise point, matches DBSCAN's label==-1 skip
		}
		clusters[label] = append(clusters[label], signals[i])
	}

	labelOrder := make([]int, 0, len(clusters))
	for label := range clusters {
		labelOrder = append(labelOrder, label)
	}
	sort.Ints(labelOrder)

	var patterns []models.Pattern
	for _, label := range labelOrder {
		clusterSignals := clusters[label]
		if len(clusterSignals) < d.MinPatternFrequency {
			continue
		}
		patterns = append(patterns, d.clusterPattern(clusterSignals, label))
	}
	return patterns
}

func (d *Detector) clusterPattern(signals []models.Signal, label int) models.Pattern {
	confidence := 0.5 + float64(len(signals))*0.04
	if confidence > 0.85 {
		confidence = 0.85
	}

	return models.Pattern{
		PatternID:   generatePatternID(clusterSeed(signals, label)),
		Type:        mapSourceToPatternType(signals[0].Source),
		Confidence:  confidence,
		SignalIDs:   signalIDs(signals),
		MerchantIDs: uniqueMerchants(signals),
		FirstSeen:   earliest(signals),
		LastSeen:    latest(signals),
		Characteristics: map[string]any{
			"cluster_based":  true,
			"cluster_label":  label,
		},
	}
}

func clusterSeed(signals []models.Signal, label int) string {
	seed := "cluster_" + string(signals[0].Source)
	for _, s := range signals {
		seed += "_" + s.SignalID
	}
	seed += "_" + strconv.Itoa(label)
	return seed
}

// tfidfVectors builds TF-IDF vectors over character 3-5-grams, keeping only
// the maxFeatures most frequent n-grams across the corpus (mirroring
// TfidfVectorizer's max_features truncation).
func tfidfVectors(messages []string, maxFeatures int) [][]float64 {
	docGrams := make([]map[string]int, len(messages))
	docFreq := map[string]int{}

	for i, msg := range messages {
		grams := charNgrams(msg, 3, 5)
		docGrams[i] = grams
		for g := range grams {
			docFreq[g]++
		}
	}

	type vocabEntry struct {
		gram string
		df   int
	}
	vocab := make([]vocabEntry, 0, len(docFreq))
	for g, df := range docFreq {
		vocab = append(vocab, vocabEntry{gram: g, df: df})
	}
	sort.Slice(vocab, func(i, j int) bool {
		if vocab[i].df != vocab[j].df {
			return vocab[i].df > vocab[j].df
		}
		return vocab[i].gram < vocab[j].gram
	})
	if len(vocab) > maxFeatures {
		vocab = vocab[:maxFeatures]
	}

	n := float64(len(messages))
	idf := make(map[string]float64, len(vocab))
	index := make(map[string]int, len(vocab))
	for i, v := range vocab {
		index[v.gram] = i
		idf[v.gram] = math.Log(n/float64(v.df)) + 1
	}

	vectors := make([][]float64, len(messages))
	for i, grams := range docGrams {
		vec := make([]float64, len(vocab))
		total := 0
		for _, count := range grams {
			total += count
		}
		if total == 0 {
			total = 1
		}
		for gram, count := range grams {
			idx, ok := index[gram]
			if !ok {
				continue
			}
			tf := float64(count) / float64(total)
			vec[idx] = tf * idf[gram]
		}
		normalize(vec)
		vectors[i] = vec
	}
	return vectors
}

func charNgrams(s string, minN, maxN int) map[string]int {
	runes := []rune(s)
	grams := map[string]int{}
	for n := minN; n <= maxN; n++ {
		if len(runes) < n {
			continue
		}
		for i := 0; i+n <= len(runes); i++ {
			grams[string(runes[i:i+n])]++
		}
	}
	return grams
}

func normalize(vec []float64) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return
	}
	norm := math.Sqrt(sumSquares)
	for i := range vec {
		vec[i] /= norm
	}
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// dbscan is a direct, unindexed implementation of the density-based
// clustering algorithm DBSCAN uses: a point is a core point if at least
// minSamples points (including itself) lie within eps; clusters grow by
// transitively absorbing density-reachable neighbors. Labels follow
// scikit-learn's convention: -1 is noise, 0..k-1 are cluster ids.
func dbscan(vectors [][]float64, eps float64, minSamples int) []int {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -2 // unvisited
	}

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if i != j && euclidean(vectors[i], vectors[j]) <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != -2 {
			continue
		}
		neigh := neighbors(i)
		if len(neigh)+1 < minSamples {
			labels[i] = -1
			continue
		}

		labels[i] = cluster
		seeds := append([]int{}, neigh...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == -1 {
				labels[j] = cluster
			}
			if labels[j] != -2 {
				continue
			}
			labels[j] = cluster
			jNeigh := neighbors(j)
			if len(jNeigh)+1 >= minSamples {
				seeds = append(seeds, jNeigh...)
			}
		}
		cluster++
	}

	for i := range labels {
		if labels[i] == -2 {
			labels[i] = -1
		}
	}
	return labels
}
