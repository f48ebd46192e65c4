// Package ticketing implements the support-system integrations the
// support_guidance, engineering_escalation, and documentation_update
// action handlers create/update tickets through, grounded on
// SupportSystemIntegrations in action_executor.py and on the teacher's
// plain net/http client shape (pkg/runbook's GitHubClient).
package ticketing

import "context"

// TicketRequest is the payload for creating a new ticket.
type TicketRequest struct {
	Subject     string
	Description string
	MerchantID  string
	Priority    string
	Tags        []string
}

// Ticket is the minimal response shape every support system client
// normalizes its API response into.
type Ticket struct {
	ID  string
	URL string
}

// Client is one support system's ticket operations (Zendesk, Jira, ...).
type Client interface {
	CreateTicket(ctx context.Context, req TicketRequest) (Ticket, error)
	UpdateTicket(ctx context.Context, ticketID, comment string, tags []string) (Ticket, error)
}

// Registry resolves a support system name ("zendesk") to its Client,
// mirroring SupportSystemIntegrations.get_client.
type Registry struct {
	clients map[string]Client
}

// NewRegistry builds a Registry from named clients.
func NewRegistry(clients map[string]Client) *Registry {
	return &Registry{clients: clients}
}

// Get returns the client registered under name, or false if none is
// configured — callers surface this as "support system not configured".
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}
