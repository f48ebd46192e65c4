package models

import "time"

// Action is the execution envelope handed to the Action Executor.
type Action struct {
	ActionID   string         `json:"action_id"`
	IssueID    string         `json:"issue_id"`
	ActionType ActionType     `json:"action_type"`
	RiskLevel  RiskLevel      `json:"risk_level"`
	MerchantID string         `json:"merchant_id"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Synthetic  bool           `json:"synthetic,omitempty"` // true for the escalation raised on retry exhaustion
}

// ActionResult is the final outcome of executing an Action.
type ActionResult struct {
	ActionID     string         `json:"action_id"`
	Success      bool           `json:"success"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ExecutedAt   time.Time      `json:"executed_at"`
	RollbackData map[string]any `json:"rollback_data,omitempty"`
}
