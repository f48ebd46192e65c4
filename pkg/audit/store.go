package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/migrationguard/core/pkg/models"
)

// Store is the audit trail's persistence contract. Implementations must
// serialize RecordAction/RecordEvent per issue_id so the read-last-hash,
// compute, insert sequence is atomic (§5's audit-trail writer lock);
// Manager provides that serialization above any Store.
type Store interface {
	// Append persists a fully-formed entry and returns its assigned audit_id.
	Append(ctx context.Context, entry models.AuditEntry) (string, error)
	// LastHash returns the most recent entry's hash for issueID, or "" if
	// the issue has no entries yet.
	LastHash(ctx context.Context, issueID string) (string, error)
	// List returns entries for issueID ordered oldest first, capped at limit.
	List(ctx context.Context, issueID string, limit int) ([]models.AuditEntry, error)
}

// Redactor sanitizes an entry's inputs/outputs before they are hashed and
// persisted. pkg/redaction.Service satisfies this.
type Redactor interface {
	RedactMap(data map[string]any) map[string]any
}

// Manager serializes writes per issue and exposes the record/verify API
// that the Orchestrator and Action Executor call through.
type Manager struct {
	store    Store
	now      func() time.Time
	locks    issueLocks
	redactor Redactor
}

// NewManager builds a Manager over store with no redaction. Callers share
// one Manager per process so the per-issue lock set is effective.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// NewManagerWithRedaction builds a Manager that redacts every entry's
// inputs/outputs through redactor before hashing and persisting, so
// credentials or customer PII captured in an Action's Parameters or a
// Decision's Reasoning never reach the audit store unmasked.
func NewManagerWithRedaction(store Store, redactor Redactor) *Manager {
	return &Manager{store: store, now: time.Now, redactor: redactor}
}

// RecordAction records an executed Action + its ActionResult. reasoning may
// be empty, in which case a minimal fallback (action_type, risk_level) is
// recorded instead, matching the original's behavior of never leaving an
// entry's reasoning empty.
func (m *Manager) RecordAction(ctx context.Context, issueID string, action models.Action, result models.ActionResult, reasoning string) (string, error) {
	if reasoning == "" {
		reasoning = fmt.Sprintf("action_type=%s risk_level=%s", action.ActionType, action.RiskLevel)
	}
	inputs := map[string]any{
		"action_id":   action.ActionID,
		"action_type": action.ActionType,
		"risk_level":  action.RiskLevel,
		"parameters":  action.Parameters,
	}
	outputs := map[string]any{
		"success":       result.Success,
		"result":        result.Result,
		"error_message": result.ErrorMessage,
		"executed_at":   result.ExecutedAt.UTC().Format(time.RFC3339Nano),
	}
	eventType := fmt.Sprintf("action_%s", action.ActionType)
	return m.record(ctx, issueID, eventType, "system", inputs, outputs, reasoning)
}

// RecordEvent records a generic orchestration event (e.g. a stage
// transition, a degradation toggle, a safe-mode trip).
func (m *Manager) RecordEvent(ctx context.Context, issueID, eventType, actor string, inputs, outputs map[string]any, reasoning string) (string, error) {
	return m.record(ctx, issueID, eventType, actor, inputs, outputs, reasoning)
}

func (m *Manager) record(ctx context.Context, issueID, eventType, actor string, inputs, outputs map[string]any, reasoning string) (string, error) {
	unlock := m.locks.lock(issueID)
	defer unlock()

	if m.redactor != nil {
		inputs = m.redactor.RedactMap(inputs)
		outputs = m.redactor.RedactMap(outputs)
	}

	previousHash, err := m.store.LastHash(ctx, issueID)
	if err != nil {
		return "", fmt.Errorf("failed to read last hash for issue %s: %w", issueID, err)
	}

	// Truncated to microsecond precision: Postgres timestamptz has no
	// sub-microsecond resolution, so hashing at full Go ns precision would
	// make every recomputation after a round-trip through storage fail.
	timestamp := m.now().UTC().Truncate(time.Microsecond)
	fields := models.HashableAuditFields{
		Timestamp:    timestamp.Format(time.RFC3339Nano),
		IssueID:      issueID,
		EventType:    eventType,
		Actor:        actor,
		Inputs:       inputs,
		Outputs:      outputs,
		Reasoning:    reasoning,
		PreviousHash: previousHash,
	}
	hash, err := computeHash(fields)
	if err != nil {
		return "", err
	}

	entry := models.AuditEntry{
		Timestamp:    timestamp,
		IssueID:      issueID,
		EventType:    eventType,
		Actor:        actor,
		Inputs:       inputs,
		Outputs:      outputs,
		Reasoning:    reasoning,
		Hash:         hash,
		PreviousHash: previousHash,
	}

	id, err := m.store.Append(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("failed to append audit entry for issue %s: %w", issueID, err)
	}
	return id, nil
}

// VerifyChainIntegrity recomputes every entry's hash for issueID and checks
// previous_hash linkage. It reports the first broken entry's audit_id.
func (m *Manager) VerifyChainIntegrity(ctx context.Context, issueID string) (bool, string, error) {
	entries, err := m.store.List(ctx, issueID, 0)
	if err != nil {
		return false, "", fmt.Errorf("failed to list audit entries for issue %s: %w", issueID, err)
	}
	if len(entries) == 0 {
		return true, "", nil
	}

	previousHash := ""
	for _, entry := range entries {
		fields := models.HashableAuditFields{
			Timestamp:    entry.Timestamp.UTC().Format(time.RFC3339Nano),
			IssueID:      entry.IssueID,
			EventType:    entry.EventType,
			Actor:        entry.Actor,
			Inputs:       entry.Inputs,
			Outputs:      entry.Outputs,
			Reasoning:    entry.Reasoning,
			PreviousHash: entry.PreviousHash,
		}
		computed, err := computeHash(fields)
		if err != nil {
			return false, "", err
		}
		if computed != entry.Hash {
			return false, fmt.Sprintf("hash mismatch for entry %s", entry.AuditID), nil
		}
		if entry.PreviousHash != previousHash {
			return false, fmt.Sprintf("chain broken at entry %s", entry.AuditID), nil
		}
		previousHash = entry.Hash
	}
	return true, "", nil
}

// GetAuditTrail returns up to limit entries for issueID, oldest first.
func (m *Manager) GetAuditTrail(ctx context.Context, issueID string, limit int) ([]models.AuditEntry, error) {
	return m.store.List(ctx, issueID, limit)
}
