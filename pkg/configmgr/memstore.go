package configmgr

import (
	"context"
	"sync"

	"github.com/migrationguard/core/pkg/models"
)

// MemStore is an in-process Store for tests and single-node deployments.
type MemStore struct {
	mu        sync.Mutex
	snapshots []models.ConfigSnapshot
	changes   map[string]models.ConfigChange
	order     []string // change_id insertion order
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{changes: make(map[string]models.ConfigChange)}
}

func (s *MemStore) SaveSnapshot(_ context.Context, snap models.ConfigSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *MemStore) SnapshotByChecksum(_ context.Context, resourceType, resourceID, checksum string) (models.ConfigSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		snap := s.snapshots[i]
		if snap.ResourceType == resourceType && snap.ResourceID == resourceID && snap.Checksum == checksum {
			return snap, nil
		}
	}
	return models.ConfigSnapshot{}, ErrNotFound{What: "snapshot"}
}

func (s *MemStore) SaveChange(_ context.Context, change models.ConfigChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes[change.ChangeID] = change
	s.order = append(s.order, change.ChangeID)
	return nil
}

func (s *MemStore) GetChange(_ context.Context, changeID string) (models.ConfigChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	change, ok := s.changes[changeID]
	if !ok {
		return models.ConfigChange{}, ErrNotFound{What: "config change " + changeID}
	}
	return change, nil
}

func (s *MemStore) MarkRolledBack(_ context.Context, changeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	change, ok := s.changes[changeID]
	if !ok {
		return ErrNotFound{What: "config change " + changeID}
	}
	change.RolledBack = true
	s.changes[changeID] = change
	return nil
}

func (s *MemStore) ListChanges(_ context.Context, resourceType, resourceID string, limit int) ([]models.ConfigChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ConfigChange
	for i := len(s.order) - 1; i >= 0; i-- {
		change := s.changes[s.order[i]]
		if resourceType != "" && change.BeforeSnapshot.ResourceType != resourceType {
			continue
		}
		if resourceID != "" && change.BeforeSnapshot.ResourceID != resourceID {
			continue
		}
		out = append(out, change)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
