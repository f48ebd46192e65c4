package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ZendeskClient talks to the Zendesk Tickets API over plain net/http,
// grounded on pkg/runbook.GitHubClient's request/response shape.
type ZendeskClient struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
}

// NewZendeskClient builds a client for a subdomain ("https://acme.zendesk.com")
// authenticating as email/token (Zendesk's "email/token:API_TOKEN" basic auth
// convention).
func NewZendeskClient(baseURL, email, apiToken string) *ZendeskClient {
	return &ZendeskClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		email:      email,
		apiToken:   apiToken,
	}
}

type zendeskTicketEnvelope struct {
	Ticket zendeskTicket `json:"ticket"`
}

type zendeskTicket struct {
	ID         int64    `json:"id,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Comment    *comment `json:"comment,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	ExternalID string   `json:"external_id,omitempty"`
}

type comment struct {
	Body string `json:"body"`
}

func (c *ZendeskClient) CreateTicket(ctx context.Context, req TicketRequest) (Ticket, error) {
	payload := zendeskTicketEnvelope{Ticket: zendeskTicket{
		Subject:    req.Subject,
		Comment:    &comment{Body: req.Description},
		Priority:   req.Priority,
		Tags:       req.Tags,
		ExternalID: req.MerchantID,
	}}
	return c.do(ctx, http.MethodPost, "/api/v2/tickets.json", payload)
}

func (c *ZendeskClient) UpdateTicket(ctx context.Context, ticketID, commentBody string, tags []string) (Ticket, error) {
	payload := zendeskTicketEnvelope{Ticket: zendeskTicket{
		Comment: &comment{Body: commentBody},
		Tags:    tags,
	}}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v2/tickets/%s.json", ticketID), payload)
}

func (c *ZendeskClient) do(ctx context.Context, method, path string, payload any) (Ticket, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Ticket{}, fmt.Errorf("failed to encode zendesk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Ticket{}, fmt.Errorf("failed to build zendesk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.email+"/token", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ticket{}, fmt.Errorf("zendesk request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Ticket{}, fmt.Errorf("failed to read zendesk response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Ticket{}, fmt.Errorf("zendesk returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var out zendeskTicketEnvelope
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Ticket{}, fmt.Errorf("failed to decode zendesk response: %w", err)
	}
	return Ticket{ID: fmt.Sprintf("%d", out.Ticket.ID), URL: fmt.Sprintf("%s/agent/tickets/%d", c.baseURL, out.Ticket.ID)}, nil
}
