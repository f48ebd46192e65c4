package configmgr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChanges_DottedPathCreatesNestedMap(t *testing.T) {
	current := map[string]any{"api": map[string]any{"timeout": 30}}
	result := applyChanges(current, map[string]any{"api.timeout": 60, "api.retries": 3})

	nested := result["api"].(map[string]any)
	assert.Equal(t, 60, nested["timeout"])
	assert.Equal(t, 3, nested["retries"])
	assert.Equal(t, 30, current["api"].(map[string]any)["timeout"]) // original untouched
}

func TestValidateAPISettings_RejectsNonPositiveTimeout(t *testing.T) {
	err := validate(ResourceAPISettings, map[string]any{"timeout": -1})
	assert.Error(t, err)
}

func TestValidateWebhookConfig_RejectsNonHTTPURL(t *testing.T) {
	err := validate(ResourceWebhookConfig, map[string]any{"url": "ftp://example.com"})
	assert.Error(t, err)
}

func TestIsKnownFixResource_ExactMatchOnly(t *testing.T) {
	assert.True(t, IsKnownFixResource("webhook_url"))
	assert.True(t, IsKnownFixResource("RETRY_COUNT"))
	assert.False(t, IsKnownFixResource("retry_count_backup"))
}

func TestManager_ApplyAndRollback(t *testing.T) {
	m := NewManager(NewMemStore())
	ctx := context.Background()

	current := map[string]any{"url": "https://old.example.com/webhook"}
	change, err := m.Apply(ctx, ResourceWebhookConfig, "merchant-1", map[string]any{"url": "https://new.example.com/webhook"}, current, "migrationguard-ai", "fix webhook")
	require.NoError(t, err)
	assert.NotEqual(t, change.BeforeSnapshot.Checksum, change.AfterSnapshot.Checksum)

	rollbackData, err := m.GetRollbackData(ctx, change.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, current["url"], rollbackData["rollback_config"].(map[string]any)["url"])

	restored, err := m.Rollback(ctx, change.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, "https://old.example.com/webhook", restored["url"])

	_, err = m.Rollback(ctx, change.ChangeID)
	assert.Error(t, err) // already rolled back
}

func TestManager_ApplyRejectsInvalidConfig(t *testing.T) {
	m := NewManager(NewMemStore())
	ctx := context.Background()

	current := map[string]any{"timeout": 30}
	_, err := m.Apply(ctx, ResourceAPISettings, "merchant-1", map[string]any{"timeout": -5}, current, "system", "bad change")
	assert.Error(t, err)
}
