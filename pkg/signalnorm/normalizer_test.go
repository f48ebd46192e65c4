package signalnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migrationguard/core/pkg/models"
)

func TestNormalize_Zendesk(t *testing.T) {
	n := New()
	raw := map[string]any{
		"ticket": map[string]any{
			"priority":    "urgent",
			"description": "Checkout integration broken after migration",
			"subject":     "Checkout broken",
			"custom_fields": map[string]any{
				"merchant_id": "merchant-123",
			},
			"tags": []any{"stage:cutover"},
		},
	}

	signal, err := n.Normalize("zendesk", raw)
	require.NoError(t, err)
	assert.Equal(t, models.SourceSupportTicket, signal.Source)
	assert.Equal(t, "merchant-123", signal.MerchantID)
	assert.Equal(t, models.SeverityCritical, signal.Severity)
	assert.Equal(t, "cutover", signal.MigrationStage)
	assert.NotEmpty(t, signal.SignalID)
}

func TestNormalize_ZendeskMerchantFromTag(t *testing.T) {
	n := New()
	raw := map[string]any{
		"ticket": map[string]any{
			"priority": "low",
			"tags":     []any{"merchant:merchant-456"},
		},
	}

	signal, err := n.Normalize("zendesk", raw)
	require.NoError(t, err)
	assert.Equal(t, "merchant-456", signal.MerchantID)
	assert.Equal(t, models.SeverityLow, signal.Severity)
}

func TestNormalize_ZendeskNumericMerchantID(t *testing.T) {
	n := New()
	raw := map[string]any{
		"ticket": map[string]any{
			"priority": "low",
			"custom_fields": map[string]any{
				"merchant_id": float64(456),
			},
		},
	}

	signal, err := n.Normalize("zendesk", raw)
	require.NoError(t, err)
	assert.Equal(t, "456", signal.MerchantID)
}

func TestNormalize_Intercom(t *testing.T) {
	n := New()
	raw := map[string]any{
		"data": map[string]any{
			"item": map[string]any{
				"id":    "conv-1",
				"state": "snoozed",
				"user": map[string]any{
					"user_id": "merchant-789",
				},
				"conversation_parts": map[string]any{
					"conversation_parts": []any{
						map[string]any{"body": "API returns 401 after migration"},
					},
				},
			},
		},
	}

	signal, err := n.Normalize("intercom", raw)
	require.NoError(t, err)
	assert.Equal(t, "merchant-789", signal.MerchantID)
	assert.Equal(t, models.SeverityLow, signal.Severity)
	assert.Contains(t, signal.ErrorMessage, "401")
}

func TestNormalize_Freshdesk(t *testing.T) {
	n := New()
	raw := map[string]any{
		"ticket": map[string]any{
			"priority":         float64(4),
			"description_text": "Webhook configuration unclear",
			"custom_fields": map[string]any{
				"merchant_id": "merchant-321",
			},
		},
	}

	signal, err := n.Normalize("freshdesk", raw)
	require.NoError(t, err)
	assert.Equal(t, "merchant-321", signal.MerchantID)
	assert.Equal(t, models.SeverityCritical, signal.Severity)
}

func TestNormalize_APIFailure(t *testing.T) {
	n := New()
	raw := map[string]any{
		"merchant_id": "merchant-1",
		"status_code": float64(503),
		"endpoint":    "/v1/orders",
		"method":      "POST",
	}

	signal, err := n.Normalize("api_failure", raw)
	require.NoError(t, err)
	assert.Equal(t, models.SourceAPIFailure, signal.Source)
	assert.Equal(t, models.SeverityCritical, signal.Severity)
	assert.Equal(t, "503", signal.ErrorCode)
	assert.Equal(t, "/v1/orders", signal.AffectedResource)
}

func TestNormalize_CheckoutErrorAlwaysHigh(t *testing.T) {
	n := New()
	raw := map[string]any{"merchant_id": "merchant-1", "cart_id": "cart-1"}

	signal, err := n.Normalize("checkout_error", raw)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, signal.Severity)
	assert.Equal(t, "cart-1", signal.AffectedResource)
}

func TestNormalize_WebhookFailureEscalatesWithCount(t *testing.T) {
	n := New()

	low, err := n.Normalize("webhook_failure", map[string]any{"merchant_id": "m", "failure_count": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, low.Severity)

	high, err := n.Normalize("webhook_failure", map[string]any{"merchant_id": "m", "failure_count": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, high.Severity)

	critical, err := n.Normalize("webhook_failure", map[string]any{"merchant_id": "m", "failure_count": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCritical, critical.Severity)
}

func TestNormalize_UnsupportedSource(t *testing.T) {
	n := New()
	_, err := n.Normalize("carrier_pigeon", map[string]any{})
	require.ErrorIs(t, err, models.ErrUnsupportedSource)
}

func TestNormalize_TruncatesLongMessages(t *testing.T) {
	n := New()
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	raw := map[string]any{"merchant_id": "m", "error_message": string(long)}

	signal, err := n.Normalize("api_failure", raw)
	require.NoError(t, err)
	assert.Len(t, []rune(signal.ErrorMessage), models.MaxMessageLen)
}
