package ticketing

import (
	"context"
	"fmt"
	"sync"
)

// MemClient is an in-process Client for tests and deployments without a
// support system configured.
type MemClient struct {
	mu      sync.Mutex
	tickets map[string]TicketRequest
	seq     int
}

// NewMemClient returns an empty MemClient.
func NewMemClient() *MemClient {
	return &MemClient{tickets: make(map[string]TicketRequest)}
}

func (c *MemClient) CreateTicket(_ context.Context, req TicketRequest) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	id := fmt.Sprintf("ticket_%d", c.seq)
	c.tickets[id] = req
	return Ticket{ID: id}, nil
}

func (c *MemClient) UpdateTicket(_ context.Context, ticketID, comment string, tags []string) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.tickets[ticketID]
	if !ok {
		return Ticket{}, fmt.Errorf("ticket not found: %s", ticketID)
	}
	req.Description = comment
	req.Tags = tags
	c.tickets[ticketID] = req
	return Ticket{ID: ticketID}, nil
}
