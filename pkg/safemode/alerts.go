package safemode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/migrationguard/core/pkg/notification"
)

// Severity mirrors AlertSeverity: info/warning/error/critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// CooldownStore tracks whether an alert rule recently fired, the narrow
// slice of pkg/cachestore.Store this package needs.
type CooldownStore interface {
	AcquireCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Rule is a named alert condition: which recipients to notify, on which
// channels, and how long to suppress repeats. Ported from AlertRule.
type Rule struct {
	Name             string
	Severity         Severity
	Recipients       []notification.Recipient
	CooldownMinutes  int
	MessageTemplate  func(context map[string]any) (title, body string)
}

// defaultRules ports AlertManager._initialize_rules. Recipient addresses
// are deployment-specific, so callers pass them via NewAlertManager's
// recipients map rather than hardcoding them here.
func defaultRules(recipients map[string][]notification.Recipient) map[string]Rule {
	return map[string]Rule{
		"high_error_rate": {
			Name: "high_error_rate", Severity: SeverityError, CooldownMinutes: 15,
			Recipients: recipients["high_error_rate"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "High error rate detected", fmt.Sprintf("error_rate=%v (threshold 5%%)", c["error_rate"])
			},
		},
		"confidence_drift": {
			Name: "confidence_drift", Severity: SeverityWarning, CooldownMinutes: 60,
			Recipients: recipients["confidence_drift"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "Confidence calibration drift detected", fmt.Sprintf("calibration_error=%v (threshold 10%%)", c["calibration_error"])
			},
		},
		"critical_error": {
			Name: "critical_error", Severity: SeverityCritical, CooldownMinutes: 5,
			Recipients: recipients["critical_error"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "Critical error", fmt.Sprintf("%v - %v", c["error_type"], c["error_message"])
			},
		},
		"safe_mode_activated": {
			Name: "safe_mode_activated", Severity: SeverityCritical, CooldownMinutes: 5,
			Recipients: recipients["safe_mode_activated"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "System entered safe mode", fmt.Sprintf("reason=%v", c["reason"])
			},
		},
		"service_unavailable": {
			Name: "service_unavailable", Severity: SeverityError, CooldownMinutes: 10,
			Recipients: recipients["service_unavailable"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "Service unavailable", fmt.Sprintf("%v - %v", c["service_name"], c["error"])
			},
		},
		"high_latency": {
			Name: "high_latency", Severity: SeverityWarning, CooldownMinutes: 30,
			Recipients: recipients["high_latency"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "High latency detected", fmt.Sprintf("p95=%vms (threshold 120000ms)", c["p95_latency"])
			},
		},
		"action_failure_spike": {
			Name: "action_failure_spike", Severity: SeverityError, CooldownMinutes: 15,
			Recipients: recipients["action_failure_spike"],
			MessageTemplate: func(c map[string]any) (string, string) {
				return "Action failure spike", fmt.Sprintf("failure_rate=%v (threshold 10%%)", c["failure_rate"])
			},
		},
	}
}

// AlertManager evaluates named rules and fans notifications out through a
// notification.Dispatcher, suppressing repeats within each rule's cooldown.
// Grounded on AlertManager in alert_manager.py.
type AlertManager struct {
	rules     map[string]Rule
	dispatcher *notification.Dispatcher
	cooldowns  CooldownStore
	logger     *slog.Logger
}

// NewAlertManager builds an AlertManager. recipients maps rule name to the
// recipients that rule should notify (deployment config, not hardcoded).
func NewAlertManager(dispatcher *notification.Dispatcher, cooldowns CooldownStore, recipients map[string][]notification.Recipient) *AlertManager {
	return &AlertManager{
		rules:      defaultRules(recipients),
		dispatcher: dispatcher,
		cooldowns:  cooldowns,
		logger:     slog.Default().With("component", "safemode-alerts"),
	}
}

// SendAlert fires ruleName if its cooldown has expired (or overrideCooldown
// is set), returning whether it actually sent. An unknown rule name or a
// rule with no configured recipients is a no-op, not an error.
func (a *AlertManager) SendAlert(ctx context.Context, ruleName string, context map[string]any, overrideCooldown bool) (bool, error) {
	rule, ok := a.rules[ruleName]
	if !ok {
		a.logger.Warn("unknown alert rule", "rule", ruleName)
		return false, nil
	}
	if len(rule.Recipients) == 0 {
		return false, nil
	}

	if !overrideCooldown {
		acquired, err := a.cooldowns.AcquireCooldown(ctx, ruleName, time.Duration(rule.CooldownMinutes)*time.Minute)
		if err != nil {
			return false, err
		}
		if !acquired {
			a.logger.Debug("alert in cooldown, skipping", "rule", ruleName)
			return false, nil
		}
	}

	title, body := rule.MessageTemplate(context)
	results := a.dispatcher.Send(ctx, rule.Recipients, notification.Message{Title: title, Body: body})

	sent := false
	for _, r := range results {
		if r.Success {
			sent = true
		} else {
			a.logger.Error("alert delivery failed", "rule", ruleName, "channel", r.Recipient.Channel, "error", r.Error)
		}
	}

	a.logger.Info("alert evaluated", "rule", ruleName, "severity", string(rule.Severity), "sent", sent)
	return sent, nil
}
