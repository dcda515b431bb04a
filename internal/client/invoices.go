package client

import (
	"context"
	"net/http"
	"time"
)

const invoicesPath = "/api/admin/invoices"

type Invoice struct {
	ID             ID     `json:"id"`
	Number         string `json:"number"`
	RestaurantID   ID     `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Amount         Amount `json:"amount"`
	Status         string `json:"status"`
	IssuedAt       string `json:"issued_at"`
	DueAt          string `json:"due_at,omitempty"`
	PaidAt         string `json:"paid_at,omitempty"`
}

type InvoiceFilter struct {
	Status       string
	RestaurantID string
	From         time.Time
	To           time.Time
	Page         int
	PerPage      int
}

func (f InvoiceFilter) query() Query {
	q := Query{
		{Key: "status", Value: f.Status},
		{Key: "restaurant_id", Value: f.RestaurantID},
		{Key: "from", Value: f.From},
		{Key: "to", Value: f.To},
	}
	return withPaging(q, f.Page, f.PerPage)
}

type InvoiceInput struct {
	RestaurantID string  `json:"restaurant_id"`
	Amount       float64 `json:"amount"`
	DueAt        string  `json:"due_at,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

func (c *Client) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	return list[Invoice](ctx, c, invoicesPath, filter.query())
}

func (c *Client) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	if err := c.get(ctx, resourcePath(invoicesPath, id), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	var inv Invoice
	if err := c.send(ctx, http.MethodPost, invoicesPath, input, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) MarkInvoicePaid(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, resourcePath(invoicesPath, id, "pay"), nil, nil)
}

// DownloadInvoicePDF returns the raw PDF document
func (c *Client) DownloadInvoicePDF(ctx context.Context, id string) ([]byte, error) {
	p, err := c.Execute(ctx, Request{
		Method:       http.MethodGet,
		Path:         resourcePath(invoicesPath, id, "pdf"),
		Header:       http.Header{"Accept": []string{"application/pdf"}},
		AuthRequired: true,
	})
	if err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}
