package configmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/migrationguard/core/pkg/database"
	"github.com/migrationguard/core/pkg/models"
)

// PGStore is the Postgres-backed Store, grounded on the config_snapshots
// and config_changes tables bootstrapped by pkg/database. Full snapshot
// payloads live in config_snapshots; config_changes references them by
// checksum rather than embedding config_data twice.
type PGStore struct {
	db *database.Client
}

// NewPGStore wraps a database.Client already bootstrapped with the schema.
func NewPGStore(db *database.Client) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) SaveSnapshot(ctx context.Context, snap models.ConfigSnapshot) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO config_snapshots (resource_type, resource_id, config_data, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, snap.ResourceType, snap.ResourceID, snap.ConfigData, snap.Checksum, snap.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert config snapshot: %w", err)
	}
	return nil
}

func (s *PGStore) SnapshotByChecksum(ctx context.Context, resourceType, resourceID, checksum string) (models.ConfigSnapshot, error) {
	var snap models.ConfigSnapshot
	var raw []byte
	err := s.db.Pool().QueryRow(ctx, `
		SELECT resource_type, resource_id, config_data, checksum, created_at
		FROM config_snapshots
		WHERE resource_type = $1 AND resource_id = $2 AND checksum = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, resourceType, resourceID, checksum).Scan(&snap.ResourceType, &snap.ResourceID, &raw, &snap.Checksum, &snap.Timestamp)
	if err == pgx.ErrNoRows {
		return models.ConfigSnapshot{}, ErrNotFound{What: "snapshot"}
	}
	if err != nil {
		return models.ConfigSnapshot{}, fmt.Errorf("failed to query snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap.ConfigData); err != nil {
		return models.ConfigSnapshot{}, fmt.Errorf("failed to decode snapshot config: %w", err)
	}
	return snap, nil
}

func (s *PGStore) SaveChange(ctx context.Context, change models.ConfigChange) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO config_changes
			(change_id, resource_type, resource_id, before_checksum, after_checksum, changes, reason, applied_by, rolled_back, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, change.ChangeID, change.BeforeSnapshot.ResourceType, change.BeforeSnapshot.ResourceID,
		change.BeforeSnapshot.Checksum, change.AfterSnapshot.Checksum, change.Changes,
		change.Reason, change.AppliedBy, change.RolledBack, change.AfterSnapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert config change: %w", err)
	}
	return nil
}

func (s *PGStore) GetChange(ctx context.Context, changeID string) (models.ConfigChange, error) {
	var change models.ConfigChange
	var resourceType, resourceID, beforeChecksum, afterChecksum string
	var rawChanges []byte
	err := s.db.Pool().QueryRow(ctx, `
		SELECT change_id, resource_type, resource_id, before_checksum, after_checksum, changes, reason, applied_by, rolled_back
		FROM config_changes
		WHERE change_id = $1
	`, changeID).Scan(&change.ChangeID, &resourceType, &resourceID, &beforeChecksum, &afterChecksum, &rawChanges, &change.Reason, &change.AppliedBy, &change.RolledBack)
	if err == pgx.ErrNoRows {
		return models.ConfigChange{}, ErrNotFound{What: "config change " + changeID}
	}
	if err != nil {
		return models.ConfigChange{}, fmt.Errorf("failed to query config change: %w", err)
	}
	if err := json.Unmarshal(rawChanges, &change.Changes); err != nil {
		return models.ConfigChange{}, fmt.Errorf("failed to decode change set: %w", err)
	}

	before, err := s.SnapshotByChecksum(ctx, resourceType, resourceID, beforeChecksum)
	if err != nil {
		return models.ConfigChange{}, fmt.Errorf("failed to recover before-snapshot for %s: %w", changeID, err)
	}
	after, err := s.SnapshotByChecksum(ctx, resourceType, resourceID, afterChecksum)
	if err != nil {
		return models.ConfigChange{}, fmt.Errorf("failed to recover after-snapshot for %s: %w", changeID, err)
	}
	change.BeforeSnapshot, change.AfterSnapshot = before, after
	return change, nil
}

func (s *PGStore) MarkRolledBack(ctx context.Context, changeID string) error {
	tag, err := s.db.Pool().Exec(ctx, `UPDATE config_changes SET rolled_back = TRUE WHERE change_id = $1`, changeID)
	if err != nil {
		return fmt.Errorf("failed to mark change rolled back: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound{What: "config change " + changeID}
	}
	return nil
}

func (s *PGStore) ListChanges(ctx context.Context, resourceType, resourceID string, limit int) ([]models.ConfigChange, error) {
	query := `
		SELECT change_id, resource_type, resource_id, before_checksum, after_checksum, changes, reason, applied_by, rolled_back
		FROM config_changes
		WHERE ($1 = '' OR resource_type = $1) AND ($2 = '' OR resource_id = $2)
		ORDER BY created_at DESC`
	args := []any{resourceType, resourceID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list config changes: %w", err)
	}
	defer rows.Close()

	var changeIDs []string
	for rows.Next() {
		var changeID, rt, rid, beforeChecksum, afterChecksum, reason, appliedBy string
		var rawChanges []byte
		var rolledBack bool
		if err := rows.Scan(&changeID, &rt, &rid, &beforeChecksum, &afterChecksum, &rawChanges, &reason, &appliedBy, &rolledBack); err != nil {
			return nil, fmt.Errorf("failed to scan config change: %w", err)
		}
		changeIDs = append(changeIDs, changeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating config changes: %w", err)
	}

	out := make([]models.ConfigChange, 0, len(changeIDs))
	for _, id := range changeIDs {
		change, err := s.GetChange(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, change)
	}
	return out, nil
}
