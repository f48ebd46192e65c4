package configmgr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/migrationguard/core/pkg/models"
)

// Manager is the entry point the Action Executor's temporary_mitigation
// handler calls through: validate, snapshot, apply, snapshot, record.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager builds a Manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

func checksum(config map[string]any) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Snapshot persists a point-in-time capture of resource's current config.
func (m *Manager) Snapshot(ctx context.Context, resourceType ResourceType, resourceID string, config map[string]any) (models.ConfigSnapshot, error) {
	sum, err := checksum(config)
	if err != nil {
		return models.ConfigSnapshot{}, err
	}
	snap := models.ConfigSnapshot{
		ResourceType: string(resourceType),
		ResourceID:   resourceID,
		ConfigData:   config,
		Timestamp:    m.now().UTC(),
		Checksum:     sum,
	}
	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		return models.ConfigSnapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// ValidateChange runs the per-resource-type validator against currentConfig
// with changes applied, without persisting anything.
func (m *Manager) ValidateChange(resourceType ResourceType, changes, currentConfig map[string]any) error {
	return validate(resourceType, applyChanges(currentConfig, changes))
}

// Apply validates, snapshots the before state, mutates, snapshots the after
// state, and records a ConfigChange. Grounded on
// config_manager.py's apply_config_change.
func (m *Manager) Apply(ctx context.Context, resourceType ResourceType, resourceID string, changes, currentConfig map[string]any, appliedBy, reason string) (models.ConfigChange, error) {
	newConfig := applyChanges(currentConfig, changes)
	if err := validate(resourceType, newConfig); err != nil {
		return models.ConfigChange{}, fmt.Errorf("config change validation failed: %w", err)
	}

	before, err := m.Snapshot(ctx, resourceType, resourceID, currentConfig)
	if err != nil {
		return models.ConfigChange{}, err
	}
	after, err := m.Snapshot(ctx, resourceType, resourceID, newConfig)
	if err != nil {
		return models.ConfigChange{}, err
	}

	change := models.ConfigChange{
		ChangeID:       fmt.Sprintf("change_%s_%s_%s", resourceType, resourceID, uuid.NewString()),
		BeforeSnapshot: before,
		AfterSnapshot:  after,
		Changes:        changes,
		Reason:         reason,
		AppliedBy:      appliedBy,
		RolledBack:     false,
	}
	if err := m.store.SaveChange(ctx, change); err != nil {
		return models.ConfigChange{}, fmt.Errorf("failed to save config change: %w", err)
	}
	return change, nil
}

// Rollback reverts a previously applied change and returns the config it
// was restored to. Returns an error if the change was already rolled back.
func (m *Manager) Rollback(ctx context.Context, changeID string) (map[string]any, error) {
	change, err := m.store.GetChange(ctx, changeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find change %s: %w", changeID, err)
	}
	if change.RolledBack {
		return nil, fmt.Errorf("change %s already rolled back", changeID)
	}
	if err := m.store.MarkRolledBack(ctx, changeID); err != nil {
		return nil, fmt.Errorf("failed to mark change %s rolled back: %w", changeID, err)
	}
	return change.BeforeSnapshot.ConfigData, nil
}

// GetRollbackData returns the data an Action's ActionResult.RollbackData
// embeds so a later rollback_action call can recover without re-deriving
// the change from storage.
func (m *Manager) GetRollbackData(ctx context.Context, changeID string) (map[string]any, error) {
	change, err := m.store.GetChange(ctx, changeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find change %s: %w", changeID, err)
	}
	return map[string]any{
		"change_id":       change.ChangeID,
		"resource_type":   change.BeforeSnapshot.ResourceType,
		"resource_id":     change.BeforeSnapshot.ResourceID,
		"rollback_config": change.BeforeSnapshot.ConfigData,
		"timestamp":       change.BeforeSnapshot.Timestamp.Format(time.RFC3339Nano),
	}, nil
}

// GetChangeHistory returns recorded changes for a resource, newest first.
func (m *Manager) GetChangeHistory(ctx context.Context, resourceType ResourceType, resourceID string, limit int) ([]models.ConfigChange, error) {
	return m.store.ListChanges(ctx, string(resourceType), resourceID, limit)
}
