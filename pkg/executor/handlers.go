package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/migrationguard/core/pkg/configmgr"
	"github.com/migrationguard/core/pkg/models"
	"github.com/migrationguard/core/pkg/notification"
	"github.com/migrationguard/core/pkg/ticketing"
)

// route dispatches to the action-type-specific handler, grounded on
// action_executor.py's _execute_with_retry if/elif chain.
func (e *Executor) route(ctx context.Context, action models.Action) (models.ActionResult, error) {
	switch action.ActionType {
	case models.ActionSupportGuidance:
		return e.executeSupportGuidance(ctx, action)
	case models.ActionProactiveCommunication:
		return e.executeProactiveCommunication(ctx, action)
	case models.ActionEngineeringEscalation:
		return e.executeEscalation(ctx, action)
	case models.ActionTemporaryMitigation:
		return e.executeMitigation(ctx, action)
	case models.ActionDocumentationUpdate:
		return e.executeDocUpdate(ctx, action)
	default:
		return models.ActionResult{}, fmt.Errorf("unknown action type: %s", action.ActionType)
	}
}

func paramString(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func paramStringOr(params map[string]any, key, fallback string) string {
	if s := paramString(params, key); s != "" {
		return s
	}
	return fallback
}

func paramStringSlice(params map[string]any, key string) []string {
	raw, ok := params[key].([]string)
	if ok {
		return raw
	}
	anySlice, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(anySlice))
	for _, v := range anySlice {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func paramMap(params map[string]any, key string) map[string]any {
	m, _ := params[key].(map[string]any)
	return m
}

func (e *Executor) executeSupportGuidance(ctx context.Context, action models.Action) (models.ActionResult, error) {
	params := action.Parameters
	merchantID := paramString(params, "merchant_id")
	message := paramString(params, "message")
	supportSystem := paramStringOr(params, "support_system", "zendesk")
	ticketID := paramString(params, "ticket_id")

	if merchantID == "" || message == "" {
		return models.ActionResult{}, fmt.Errorf("missing required parameters: merchant_id, message")
	}

	client, ok := e.tickets.Get(supportSystem)
	if !ok {
		return models.ActionResult{}, fmt.Errorf("support system not configured: %s", supportSystem)
	}

	var ticket ticketing.Ticket
	var err error
	if ticketID != "" {
		ticket, err = client.UpdateTicket(ctx, ticketID, message, []string{"migrationguard-ai", "automated-response"})
	} else {
		ticket, err = client.CreateTicket(ctx, ticketing.TicketRequest{
			Subject:     "Migration Support Guidance",
			Description: message,
			MerchantID:  merchantID,
			Priority:    "normal",
			Tags:        []string{"migrationguard-ai", "automated-guidance"},
		})
	}
	if err != nil {
		return models.ActionResult{}, models.Transient("support_guidance", err)
	}

	return models.ActionResult{
		ActionID: action.ActionID,
		Success:  true,
		Result: map[string]any{
			"ticket_id":       ticket.ID,
			"support_system":  supportSystem,
			"message_sent":    true,
		},
		ExecutedAt: e.now(),
	}, nil
}

func (e *Executor) executeProactiveCommunication(ctx context.Context, action models.Action) (models.ActionResult, error) {
	params := action.Parameters
	merchantIDs := paramStringSlice(params, "merchant_ids")
	message := paramString(params, "message")
	subject := paramStringOr(params, "subject", "Important Update")
	channelName := paramStringOr(params, "channel", "email")

	if len(merchantIDs) == 0 || message == "" {
		return models.ActionResult{}, fmt.Errorf("missing required parameters: merchant_ids, message")
	}

	recipients := make([]notification.Recipient, len(merchantIDs))
	for i, id := range merchantIDs {
		recipients[i] = notification.Recipient{Channel: channelName, Address: id}
	}

	results := e.notifier.Send(ctx, recipients, notification.Message{Title: subject, Body: message})

	successCount := 0
	perRecipient := make(map[string]bool, len(results))
	for _, r := range results {
		perRecipient[r.Recipient.Address] = r.Success
		if r.Success {
			successCount++
		}
	}

	result := models.ActionResult{
		ActionID: action.ActionID,
		Success:  successCount > 0,
		Result: map[string]any{
			"notified":             successCount,
			"total":                len(merchantIDs),
			"channel":              channelName,
			"per_recipient_status": perRecipient,
		},
		ExecutedAt: e.now(),
	}
	if successCount == 0 {
		result.ErrorMessage = "all notifications failed"
	}
	return result, nil
}

func (e *Executor) executeEscalation(ctx context.Context, action models.Action) (models.ActionResult, error) {
	params := action.Parameters
	issueID := paramString(params, "issue_id")
	rootCause := paramMap(params, "root_cause")
	signals := paramStringSlice(params, "signals")
	merchantID := paramString(params, "merchant_id")
	priority := paramStringOr(params, "priority", "high")

	if issueID == "" || rootCause == nil {
		return models.ActionResult{}, fmt.Errorf("missing required parameters: issue_id, root_cause")
	}

	subject := fmt.Sprintf("Engineering Escalation: %s", paramStringOr(rootCause, "category", "Unknown"))
	description := escalationDescription(issueID, merchantID, priority, signals, rootCause)

	client, ok := e.tickets.Get("zendesk")
	if !ok {
		return models.ActionResult{}, fmt.Errorf("zendesk not configured for escalations")
	}
	ticket, err := client.CreateTicket(ctx, ticketing.TicketRequest{
		Subject:     subject,
		Description: description,
		MerchantID:  stringOr(merchantID, "system"),
		Priority:    priority,
		Tags:        []string{"migrationguard-ai", "engineering-escalation", "automated"},
	})
	if err != nil {
		return models.ActionResult{}, models.Transient("engineering_escalation", err)
	}

	return models.ActionResult{
		ActionID: action.ActionID,
		Success:  true,
		Result: map[string]any{
			"escalation_ticket_id": ticket.ID,
			"issue_id":             issueID,
			"priority":             priority,
		},
		ExecutedAt: e.now(),
	}, nil
}

func escalationDescription(issueID, merchantID, priority string, signals []string, rootCause map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Engineering Escalation\n\n**Issue ID:** %s\n**Merchant ID:** %s\n**Priority:** %s\n\n", issueID, merchantID, priority)
	b.WriteString("## Root Cause Analysis\n\n")
	fmt.Fprintf(&b, "**Category:** %v\n**Confidence:** %v\n**Reasoning:** %v\n\n", rootCause["category"], rootCause["confidence"], rootCause["reasoning"])
	b.WriteString("## Signals\n\n")
	fmt.Fprintf(&b, "%d signals detected. See issue details for full context.\n\n", len(signals))
	b.WriteString("## Recommended Actions\n\n")
	if actions, ok := rootCause["recommended_actions"].([]string); ok {
		for _, a := range actions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	b.WriteString("\n---\n*This ticket was automatically created by MigrationGuard AI*")
	return b.String()
}

func (e *Executor) executeMitigation(ctx context.Context, action models.Action) (models.ActionResult, error) {
	params := action.Parameters
	resourceType := configmgr.ResourceType(paramString(params, "resource_type"))
	resourceID := paramString(params, "resource_id")
	configChanges := paramMap(params, "config_changes")
	currentConfig := paramMap(params, "current_config")
	reason := paramStringOr(params, "reason", "Temporary mitigation")
	resourceName := paramString(params, "resource")

	if resourceType == "" || resourceID == "" || configChanges == nil || currentConfig == nil {
		return models.ActionResult{}, fmt.Errorf("missing required parameters for mitigation")
	}
	if resourceName != "" && !configmgr.IsKnownFixResource(resourceName) {
		return models.ActionResult{}, fmt.Errorf("resource %q is not in the known auto-fix set", resourceName)
	}

	change, err := e.config.Apply(ctx, resourceType, resourceID, configChanges, currentConfig, "migrationguard-ai", reason)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("config change failed: %w", err)
	}

	rollbackData, err := e.config.GetRollbackData(ctx, change.ChangeID)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to fetch rollback data: %w", err)
	}

	return models.ActionResult{
		ActionID: action.ActionID,
		Success:  true,
		Result: map[string]any{
			"change_id":          change.ChangeID,
			"resource_type":      string(resourceType),
			"resource_id":        resourceID,
			"changes_applied":    configChanges,
			"rollback_available": true,
		},
		RollbackData: rollbackData,
		ExecutedAt:   e.now(),
	}, nil
}

func (e *Executor) executeDocUpdate(ctx context.Context, action models.Action) (models.ActionResult, error) {
	params := action.Parameters
	section := paramString(params, "doc_section")
	issueDescription := paramString(params, "issue_description")
	suggested := paramStringOr(params, "suggested_content", "See issue details for context")

	if section == "" || issueDescription == "" {
		return models.ActionResult{}, fmt.Errorf("missing required parameters for doc update")
	}

	subject := fmt.Sprintf("Documentation Update: %s", section)
	description := fmt.Sprintf(
		"# Documentation Update Request\n\n**Section:** %s\n\n## Issue Description\n\n%s\n\n## Suggested Update\n\n%s\n\n---\n*This request was automatically created by MigrationGuard AI*",
		section, issueDescription, suggested,
	)

	client, ok := e.tickets.Get("zendesk")
	if !ok {
		return models.ActionResult{}, fmt.Errorf("zendesk not configured for doc updates")
	}
	ticket, err := client.CreateTicket(ctx, ticketing.TicketRequest{
		Subject:     subject,
		Description: description,
		MerchantID:  "documentation-team",
		Priority:    "normal",
		Tags:        []string{"migrationguard-ai", "documentation", "automated"},
	})
	if err != nil {
		return models.ActionResult{}, models.Transient("documentation_update", err)
	}

	return models.ActionResult{
		ActionID: action.ActionID,
		Success:  true,
		Result: map[string]any{
			"doc_update_ticket_id": ticket.ID,
			"doc_section":          section,
		},
		ExecutedAt: e.now(),
	}, nil
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
