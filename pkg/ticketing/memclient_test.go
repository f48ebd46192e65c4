package ticketing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemClient_CreateThenUpdateTicket(t *testing.T) {
	c := NewMemClient()
	ctx := context.Background()

	ticket, err := c.CreateTicket(ctx, TicketRequest{Subject: "Help", MerchantID: "m1"})
	require.NoError(t, err)
	require.NotEmpty(t, ticket.ID)

	updated, err := c.UpdateTicket(ctx, ticket.ID, "follow up", []string{"automated"})
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, updated.ID)

	_, err = c.UpdateTicket(ctx, "missing", "x", nil)
	assert.Error(t, err)
}

func TestRegistry_GetUnknownSystem(t *testing.T) {
	r := NewRegistry(map[string]Client{"zendesk": NewMemClient()})
	_, ok := r.Get("jira")
	assert.False(t, ok)
	_, ok = r.Get("zendesk")
	assert.True(t, ok)
}
