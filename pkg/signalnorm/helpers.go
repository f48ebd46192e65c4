package signalnorm

import (
	"strconv"
	"strings"

	"github.com/migrationguard/core/pkg/models"
)

// extractMerchantID mirrors _extract_merchant_id: custom_fields.merchant_id,
// then a "merchant:" tag, then requester_id, then "unknown".
func extractMerchantID(ticket map[string]any) string {
	if customFields, ok := ticket["custom_fields"].(map[string]any); ok {
		if v := stringOr(customFields["merchant_id"], ""); v != "" {
			return v
		}
	}
	if tags, ok := ticket["tags"].([]any); ok {
		for _, t := range tags {
			if tag, ok := t.(string); ok && strings.HasPrefix(tag, "merchant:") {
				return strings.TrimPrefix(tag, "merchant:")
			}
		}
	}
	if v := stringOr(ticket["requester_id"], ""); v != "" {
		return v
	}
	return models.UnknownMerchant
}

// extractMigrationStage mirrors _extract_migration_stage: custom_fields
// first, then a "stage:" tag, then empty.
func extractMigrationStage(ticket map[string]any) string {
	if customFields, ok := ticket["custom_fields"].(map[string]any); ok {
		if v := stringOr(customFields["migration_stage"], ""); v != "" {
			return v
		}
	}
	if tags, ok := ticket["tags"].([]any); ok {
		for _, t := range tags {
			if tag, ok := t.(string); ok && strings.HasPrefix(tag, "stage:") {
				return strings.TrimPrefix(tag, "stage:")
			}
		}
	}
	return ""
}

func mapZendeskPriority(priority string) models.Severity {
	switch priority {
	case "urgent":
		return models.SeverityCritical
	case "high":
		return models.SeverityHigh
	case "low":
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

func mapFreshdeskPriority(priority int) models.Severity {
	switch priority {
	case 1:
		return models.SeverityLow
	case 3:
		return models.SeverityHigh
	case 4:
		return models.SeverityCritical
	default:
		return models.SeverityMedium
	}
}

func mapIntercomState(state string) models.Severity {
	switch state {
	case "snoozed", "closed":
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

func mapHTTPStatusToSeverity(statusCode int) models.Severity {
	switch {
	case statusCode >= 500:
		return models.SeverityCritical
	case statusCode >= 400:
		return models.SeverityHigh
	case statusCode >= 300:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// stringOr coerces a JSON-decoded any to a string, falling back to fallback
// for nil/non-string/non-numeric values. Webhook payloads decode numeric and
// boolean fields as float64/bool, so this also stringifies those instead of
// silently dropping them the way a bare type assertion would.
func stringOr(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return fallback
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fallback
	}
}

// intOr coerces a JSON-decoded numeric field (float64 from encoding/json,
// or int if constructed directly in tests) to int, falling back otherwise.
func intOr(v any, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		return fallback
	}
}
