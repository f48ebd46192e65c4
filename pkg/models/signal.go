// Package models holds the canonical domain types shared across the core:
// Signal, Pattern, RootCauseAnalysis, Decision, Action/ActionResult,
// AuditEntry, IssueState, and ConfigSnapshot/ConfigChange.
package models

import "time"

// Source identifies the origin system of a Signal.
type Source string

// Closed set of recognized signal sources.
const (
	SourceSupportTicket  Source = "support_ticket"
	SourceAPIFailure     Source = "api_failure"
	SourceCheckoutError  Source = "checkout_error"
	SourceWebhookFailure Source = "webhook_failure"
)

// Severity is the closed severity enumeration.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric ordering for severity comparisons (higher = worse).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// MaxMessageLen is the truncation bound for Signal.ErrorMessage.
const MaxMessageLen = 500

// Signal is the canonical atomic observation ingested by the core.
// Immutable once created.
type Signal struct {
	SignalID         string         `json:"signal_id"`
	Timestamp        time.Time      `json:"timestamp"`
	Source           Source         `json:"source"`
	RawData          map[string]any `json:"raw_data"`
	MerchantID       string         `json:"merchant_id"`
	MigrationStage   string         `json:"migration_stage,omitempty"`
	AffectedResource string         `json:"affected_resource,omitempty"`
	Severity         Severity       `json:"severity"`
	ErrorCode        string         `json:"error_code,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Context          map[string]any `json:"context,omitempty"`
}

// Truncate caps ErrorMessage at MaxMessageLen runes, matching §3's
// "truncated to 500 chars" requirement.
func (s *Signal) Truncate() {
	r := []rune(s.ErrorMessage)
	if len(r) > MaxMessageLen {
		s.ErrorMessage = string(r[:MaxMessageLen])
	}
}

// UnknownMerchant is used when a merchant id cannot be resolved from the
// source payload.
const UnknownMerchant = "unknown"
