// Package signalnorm implements the Signal Ingestion/Normalization
// component (§4.1): turning per-vendor support-ticket payloads and internal
// failure events into the canonical models.Signal shape, grounded on
// SignalNormalizer in the original's signal_normalizer.py.
package signalnorm

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/migrationguard/core/pkg/models"
)

// Normalizer dispatches raw per-source payloads to the matching mapper.
type Normalizer struct {
	now func() time.Time
}

// New builds a Normalizer. now defaults to time.Now; tests override it for
// deterministic Signal.Timestamp assertions.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

type mapperFunc func(raw map[string]any) (models.Signal, error)

func (n *Normalizer) mappers() map[string]mapperFunc {
	return map[string]mapperFunc{
		"zendesk":         n.normalizeZendesk,
		"intercom":        n.normalizeIntercom,
		"freshdesk":       n.normalizeFreshdesk,
		"api_failure":     n.normalizeAPIFailure,
		"checkout_error":  n.normalizeCheckoutError,
		"webhook_failure": n.normalizeWebhookFailure,
	}
}

// Normalize turns a raw payload from sourceType into a canonical Signal,
// assigning a fresh signal_id and timestamp and truncating ErrorMessage to
// models.MaxMessageLen. Returns models.ErrUnsupportedSource for an unknown
// sourceType.
func (n *Normalizer) Normalize(sourceType string, raw map[string]any) (models.Signal, error) {
	mapper, ok := n.mappers()[sourceType]
	if !ok {
		return models.Signal{}, fmt.Errorf("%w: %s", models.ErrUnsupportedSource, sourceType)
	}

	signal, err := mapper(raw)
	if err != nil {
		return models.Signal{}, fmt.Errorf("signalnorm: normalize %s signal: %w", sourceType, err)
	}

	signal.SignalID = uuid.NewString()
	signal.Timestamp = n.now()
	signal.RawData = raw
	signal.Truncate()
	return signal, nil
}

func (n *Normalizer) normalizeZendesk(raw map[string]any) (models.Signal, error) {
	ticket, _ := raw["ticket"].(map[string]any)

	description, _ := ticket["description"].(string)
	return models.Signal{
		Source:           models.SourceSupportTicket,
		MerchantID:       extractMerchantID(ticket),
		MigrationStage:   extractMigrationStage(ticket),
		Severity:         mapZendeskPriority(stringOr(ticket["priority"], "normal")),
		ErrorMessage:     description,
		AffectedResource: stringOr(ticket["subject"], ""),
		Context: map[string]any{
			"ticket_id":    ticket["id"],
			"status":       ticket["status"],
			"requester_id": ticket["requester_id"],
			"created_at":   ticket["created_at"],
		},
	}, nil
}

func (n *Normalizer) normalizeIntercom(raw map[string]any) (models.Signal, error) {
	data, _ := raw["data"].(map[string]any)
	item, _ := data["item"].(map[string]any)
	user, _ := item["user"].(map[string]any)

	merchantID := stringOr(user["user_id"], "")
	if merchantID == "" {
		merchantID = stringOr(user["id"], models.UnknownMerchant)
	}

	var errorMessage string
	if parts, ok := item["conversation_parts"].(map[string]any); ok {
		if list, ok := parts["conversation_parts"].([]any); ok && len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok {
				errorMessage = stringOr(first["body"], "")
			}
		}
	}

	return models.Signal{
		Source:           models.SourceSupportTicket,
		MerchantID:       merchantID,
		Severity:         mapIntercomState(stringOr(item["state"], "open")),
		ErrorMessage:     errorMessage,
		AffectedResource: stringOr(item["id"], ""),
		Context: map[string]any{
			"conversation_id": item["id"],
			"state":           item["state"],
			"created_at":      item["created_at"],
		},
	}, nil
}

func (n *Normalizer) normalizeFreshdesk(raw map[string]any) (models.Signal, error) {
	ticket, ok := raw["ticket"].(map[string]any)
	if !ok {
		ticket = raw
	}

	description := stringOr(ticket["description_text"], stringOr(ticket["description"], ""))
	ticketID := ticket["ticket_id"]
	if ticketID == nil {
		ticketID = ticket["id"]
	}

	return models.Signal{
		Source:           models.SourceSupportTicket,
		MerchantID:       extractMerchantID(ticket),
		MigrationStage:   extractMigrationStage(ticket),
		Severity:         mapFreshdeskPriority(intOr(ticket["priority"], 2)),
		ErrorMessage:     description,
		AffectedResource: stringOr(ticket["subject"], ""),
		Context: map[string]any{
			"ticket_id":    ticketID,
			"status":       ticket["status"],
			"requester_id": ticket["requester_id"],
			"created_at":   ticket["created_at"],
		},
	}, nil
}

func (n *Normalizer) normalizeAPIFailure(raw map[string]any) (models.Signal, error) {
	statusCode := intOr(raw["status_code"], 500)
	errorCode := stringOr(raw["error_code"], "")
	if errorCode == "" {
		errorCode = fmt.Sprintf("%d", statusCode)
	}

	return models.Signal{
		Source:           models.SourceAPIFailure,
		MerchantID:       stringOr(raw["merchant_id"], models.UnknownMerchant),
		MigrationStage:   stringOr(raw["migration_stage"], ""),
		Severity:         mapHTTPStatusToSeverity(statusCode),
		ErrorMessage:     stringOr(raw["error_message"], ""),
		ErrorCode:        errorCode,
		AffectedResource: stringOr(raw["endpoint"], ""),
		Context: map[string]any{
			"method":            raw["method"],
			"status_code":       statusCode,
			"response_time_ms":  raw["response_time_ms"],
		},
	}, nil
}

func (n *Normalizer) normalizeCheckoutError(raw map[string]any) (models.Signal, error) {
	resource := stringOr(raw["cart_id"], "")
	if resource == "" {
		resource = stringOr(raw["order_id"], "")
	}

	return models.Signal{
		Source:           models.SourceCheckoutError,
		MerchantID:       stringOr(raw["merchant_id"], models.UnknownMerchant),
		MigrationStage:   stringOr(raw["migration_stage"], ""),
		Severity:         models.SeverityHigh,
		ErrorMessage:     stringOr(raw["error_message"], ""),
		ErrorCode:        stringOr(raw["error_code"], ""),
		AffectedResource: resource,
		Context: map[string]any{
			"cart_value":     raw["cart_value"],
			"payment_method": raw["payment_method"],
			"step":           raw["checkout_step"],
		},
	}, nil
}

func (n *Normalizer) normalizeWebhookFailure(raw map[string]any) (models.Signal, error) {
	failureCount := intOr(raw["failure_count"], 1)

	var severity models.Severity
	switch {
	case failureCount >= 5:
		severity = models.SeverityCritical
	case failureCount >= 3:
		severity = models.SeverityHigh
	default:
		severity = models.SeverityMedium
	}

	return models.Signal{
		Source:           models.SourceWebhookFailure,
		MerchantID:       stringOr(raw["merchant_id"], models.UnknownMerchant),
		MigrationStage:   stringOr(raw["migration_stage"], ""),
		Severity:         severity,
		ErrorMessage:     stringOr(raw["error_message"], ""),
		ErrorCode:        stringOr(raw["error_code"], ""),
		AffectedResource: stringOr(raw["webhook_url"], ""),
		Context: map[string]any{
			"webhook_event": raw["event_type"],
			"failure_count": failureCount,
			"last_attempt":  raw["last_attempt"],
		},
	}, nil
}
