package client

import (
	"context"
	"net/http"
)

const ticketsPath = "/api/admin/support/tickets"

type TicketMessage struct {
	ID        ID     `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type Ticket struct {
	ID             ID              `json:"id"`
	Subject        string          `json:"subject"`
	Status         string          `json:"status"`
	Priority       string          `json:"priority"`
	RequesterName  string          `json:"requester_name"`
	RequesterEmail string          `json:"requester_email"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
	Messages       []TicketMessage `json:"messages,omitempty"`
}

type TicketFilter struct {
	Status   string // open, pending, closed
	Priority string
	Search   string
	Page     int
	PerPage  int
}

func (f TicketFilter) query() Query {
	q := Query{
		{Key: "status", Value: f.Status},
		{Key: "priority", Value: f.Priority},
		{Key: "search", Value: f.Search},
	}
	return withPaging(q, f.Page, f.PerPage)
}

func (c *Client) ListTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	return list[Ticket](ctx, c, ticketsPath, filter.query())
}

// GetTicket returns the ticket with its message thread
func (c *Client) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	if err := c.get(ctx, resourcePath(ticketsPath, id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ReplyTicket(ctx context.Context, id, message string) (*TicketMessage, error) {
	var m TicketMessage
	body := map[string]string{"message": message}
	if err := c.send(ctx, http.MethodPost, resourcePath(ticketsPath, id, "replies"), body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CloseTicket(ctx context.Context, id string) error {
	body := map[string]string{"status": "closed"}
	return c.send(ctx, http.MethodPatch, resourcePath(ticketsPath, id), body, nil)
}
