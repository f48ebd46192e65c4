// Package searchstore indexes detected Patterns for similarity search.
// pkg/patterndetect's Publisher writes patterns into it; no component in
// this module queries it (the Pattern Detector does not look up existing
// patterns, and the Root-Cause Analyzer does not read the index).
// It is named in the component design as "search_index" — the service this
// core falls back away from when pkg/degradation reports it unavailable.
package searchstore

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/migrationguard/core/pkg/models"
)

// patternDoc is the indexed projection of a Pattern: bleve indexes struct
// fields by their JSON-ish name via reflection, so this mirrors the subset
// of models.Pattern that's actually searchable text/numeric data.
type patternDoc struct {
	PatternID   string   `json:"pattern_id"`
	Type        string   `json:"pattern_type"`
	MerchantIDs []string `json:"merchant_ids"`
	Confidence  float64  `json:"confidence"`
	Signature   string   `json:"signature"`
}

// Store wraps a bleve index of Patterns.
type Store struct {
	index bleve.Index
}

// Open builds an in-memory bleve index (path == "") or a disk-backed one at
// path. An in-memory index is what tests and single-process deployments use;
// a real deployment can point Open at a persistent volume.
func Open(path string) (*Store, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		idx, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("searchstore: open index: %w", err)
	}
	return &Store{index: idx}, nil
}

// Close releases the underlying index.
func (s *Store) Close() error { return s.index.Close() }

// Index upserts a Pattern into the search index. signature is the
// discriminator text used for similarity search — the error code/message
// fingerprint or the n-gram cluster centroid text the pattern was built from.
func (s *Store) Index(pattern models.Pattern, signature string) error {
	doc := patternDoc{
		PatternID:   pattern.PatternID,
		Type:        string(pattern.Type),
		MerchantIDs: pattern.MerchantIDs,
		Confidence:  pattern.Confidence,
		Signature:   signature,
	}
	if err := s.index.Index(pattern.PatternID, doc); err != nil {
		return fmt.Errorf("searchstore: index pattern %s: %w", pattern.PatternID, err)
	}
	return nil
}

// Delete removes a pattern from the index. Nothing in this module calls it,
// so patterns stay indexed after their signals leave the detection window.
func (s *Store) Delete(patternID string) error {
	if err := s.index.Delete(patternID); err != nil {
		return fmt.Errorf("searchstore: delete pattern %s: %w", patternID, err)
	}
	return nil
}

// Match is one similarity search hit.
type Match struct {
	PatternID string
	Score     float64
}

// FindSimilar searches for patterns whose signature text is similar to
// signature, restricted to patternType, returning at most limit hits ordered
// by descending score. No minimum score is applied to the hits. Nothing in
// this module calls it: the Pattern Detector does not fold incoming signals
// into existing patterns.
func (s *Store) FindSimilar(ctx context.Context, patternType, signature string, limit int) ([]Match, error) {
	textQuery := bleve.NewMatchQuery(signature)
	textQuery.SetField("signature")

	typeQuery := bleve.NewTermQuery(patternType)
	typeQuery.SetField("pattern_type")

	combined := bleve.NewConjunctionQuery(textQuery, typeQuery)

	req := bleve.NewSearchRequestOptions(combined, limit, 0, false)
	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, models.Transient("searchstore.find_similar", err)
	}

	matches := make([]Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		matches = append(matches, Match{PatternID: hit.ID, Score: hit.Score})
	}
	return matches, nil
}

// FindByMerchant searches for up to limit patterns that touched merchantID.
// Nothing in this module calls it.
func (s *Store) FindByMerchant(ctx context.Context, merchantID string, limit int) ([]Match, error) {
	q := bleve.NewTermQuery(merchantID)
	q.SetField("merchant_ids")

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, models.Transient("searchstore.find_by_merchant", err)
	}

	matches := make([]Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		matches = append(matches, Match{PatternID: hit.ID, Score: hit.Score})
	}
	return matches, nil
}
