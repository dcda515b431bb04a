package client

import (
	"context"
	"net/http"
	"time"
)

const payoutsPath = "/api/admin/payouts"

type Payout struct {
	ID            ID     `json:"id"`
	RecipientType string `json:"recipient_type"` // courier or restaurant
	RecipientID   ID     `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
	Amount        Amount `json:"amount"`
	Status        string `json:"status"`
	PeriodStart   string `json:"period_start,omitempty"`
	PeriodEnd     string `json:"period_end,omitempty"`
	CreatedAt     string `json:"created_at"`
	PaidAt        string `json:"paid_at,omitempty"`
}

type PayoutFilter struct {
	Status       string
	CourierID    string
	RestaurantID string
	From         time.Time
	To           time.Time
	Page         int
	PerPage      int
}

func (f PayoutFilter) query() Query {
	q := Query{
		{Key: "status", Value: f.Status},
		{Key: "courier_id", Value: f.CourierID},
		{Key: "restaurant_id", Value: f.RestaurantID},
		{Key: "from", Value: f.From},
		{Key: "to", Value: f.To},
	}
	return withPaging(q, f.Page, f.PerPage)
}

type PayoutInput struct {
	RecipientType string  `json:"recipient_type"`
	RecipientID   string  `json:"recipient_id"`
	Amount        float64 `json:"amount"`
	PeriodStart   string  `json:"period_start,omitempty"`
	PeriodEnd     string  `json:"period_end,omitempty"`
}

func (c *Client) ListPayouts(ctx context.Context, filter PayoutFilter) ([]Payout, error) {
	return list[Payout](ctx, c, payoutsPath, filter.query())
}

func (c *Client) CreatePayout(ctx context.Context, input PayoutInput) (*Payout, error) {
	var p Payout
	if err := c.send(ctx, http.MethodPost, payoutsPath, input, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProcessPayout marks a pending payout as paid
func (c *Client) ProcessPayout(ctx context.Context, id string) (*Payout, error) {
	var p Payout
	if err := c.send(ctx, http.MethodPost, resourcePath(payoutsPath, id, "process"), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
