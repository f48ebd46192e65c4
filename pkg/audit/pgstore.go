package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/migrationguard/core/pkg/database"
	"github.com/migrationguard/core/pkg/models"
)

// PGStore is the Postgres-backed Store, grounded on the audit_entries
// table bootstrapped by pkg/database.
type PGStore struct {
	db *database.Client
}

// NewPGStore wraps a database.Client already bootstrapped with the schema.
func NewPGStore(db *database.Client) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, entry models.AuditEntry) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO audit_entries
			(audit_id, issue_id, event_type, actor, inputs, outputs, reasoning, hash, previous_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, entry.IssueID, entry.EventType, entry.Actor, entry.Inputs, entry.Outputs, entry.Reasoning, entry.Hash, entry.PreviousHash, entry.Timestamp)
	if err != nil {
		return "", fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return id, nil
}

func (s *PGStore) LastHash(ctx context.Context, issueID string) (string, error) {
	var hash string
	err := s.db.Pool().QueryRow(ctx, `
		SELECT hash FROM audit_entries
		WHERE issue_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, issueID).Scan(&hash)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last hash: %w", err)
	}
	return hash, nil
}

func (s *PGStore) List(ctx context.Context, issueID string, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT audit_id, issue_id, event_type, actor, inputs, outputs, reasoning, hash, previous_hash, created_at
		FROM audit_entries
		WHERE issue_id = $1
		ORDER BY created_at ASC`
	args := []any{issueID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.AuditID, &e.IssueID, &e.EventType, &e.Actor, &e.Inputs, &e.Outputs, &e.Reasoning, &e.Hash, &e.PreviousHash, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating audit entries: %w", err)
	}
	return entries, nil
}
