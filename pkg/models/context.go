package models

// MerchantContext carries the cross-cutting facts about an issue's blast
// radius that the Analyzer and Decision Engine both need. §4.4/§4.5 of the
// spec reference "merchant_context" / "context" without pinning a shape;
// this is the one shared type all downstream components read and write.
type MerchantContext struct {
	MerchantID             string         `json:"merchant_id"`
	Severity               Severity       `json:"severity,omitempty"`
	MigrationStage         string         `json:"migration_stage,omitempty"`
	AffectedResource       string         `json:"affected_resource,omitempty"`
	ErrorMessage           string         `json:"error_message,omitempty"`
	AffectsCheckout        bool           `json:"affects_checkout"`
	AffectsPayment         bool           `json:"affects_payment"`
	AffectedMerchants      []string       `json:"affected_merchants"`
	SignalIDs              []string       `json:"signal_ids,omitempty"`
	PatternIDs             []string       `json:"pattern_ids,omitempty"`
	SupportSystem          string         `json:"support_system,omitempty"`
	DocumentationSection   string         `json:"documentation_section,omitempty"`
	TicketID               string         `json:"ticket_id,omitempty"`
	Extra                  map[string]any `json:"extra,omitempty"`
}

// AffectedMerchantsOrSelf returns AffectedMerchants, falling back to a
// single-element slice containing MerchantID when unset — mirrors the
// original's `context.get("affected_merchants", [context.get("merchant_id")])`
// default.
func (c MerchantContext) AffectedMerchantsOrSelf() []string {
	if len(c.AffectedMerchants) > 0 {
		return c.AffectedMerchants
	}
	return []string{c.MerchantID}
}

// AffectedMerchantCount is a convenience accessor used by risk assessment
// and escalation-priority computation.
func (c MerchantContext) AffectedMerchantCount() int {
	return len(c.AffectedMerchants)
}
