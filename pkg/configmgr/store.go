// Package configmgr implements snapshot/apply/rollback configuration
// management for the temporary_mitigation action type: every change is
// validated, snapshotted before and after, checksummed, and reversible.
package configmgr

import (
	"context"

	"github.com/migrationguard/core/pkg/models"
)

// Store is configmgr's persistence contract.
type Store interface {
	SaveSnapshot(ctx context.Context, snap models.ConfigSnapshot) error
	// SnapshotByChecksum finds the most recent snapshot for a resource
	// matching checksum, used to recover full config_data for rollback
	// when only checksums are persisted alongside the change record.
	SnapshotByChecksum(ctx context.Context, resourceType, resourceID, checksum string) (models.ConfigSnapshot, error)

	SaveChange(ctx context.Context, change models.ConfigChange) error
	GetChange(ctx context.Context, changeID string) (models.ConfigChange, error)
	MarkRolledBack(ctx context.Context, changeID string) error
	ListChanges(ctx context.Context, resourceType, resourceID string, limit int) ([]models.ConfigChange, error)
}

// ErrNotFound is returned by Store lookups that find nothing.
type ErrNotFound struct{ What string }

func (e ErrNotFound) Error() string { return e.What + " not found" }
