package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/migrationguard/core/pkg/models"
)

// MemStore is an in-process Store for tests and single-node deployments
// without a database configured.
type MemStore struct {
	mu      sync.Mutex
	entries map[string][]models.AuditEntry // issue_id -> entries, append order
	seq     int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]models.AuditEntry)}
}

func (s *MemStore) Append(_ context.Context, entry models.AuditEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entry.AuditID = fmt.Sprintf("audit_%d", s.seq)
	s.entries[entry.IssueID] = append(s.entries[entry.IssueID], entry)
	return entry.AuditID, nil
}

func (s *MemStore) LastHash(_ context.Context, issueID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[issueID]
	if len(entries) == 0 {
		return "", nil
	}
	return entries[len(entries)-1].Hash, nil
}

func (s *MemStore) List(_ context.Context, issueID string, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append([]models.AuditEntry(nil), s.entries[issueID]...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
