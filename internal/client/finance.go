package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// FinanceFamily is the resolver family of every finance endpoint
const FinanceFamily = "finance"

// FinanceCandidates are the prefixes the finance endpoints have been deployed under, newest first
var FinanceCandidates = []string{"/api/admin/finance", "/admin/finance", "/api/finance"}

type FinanceOverview struct {
	GrossRevenue       Amount `json:"gross_revenue"`
	PlatformFees       Amount `json:"platform_fees"`
	RestaurantPayables Amount `json:"restaurant_payables"`
	CourierPayables    Amount `json:"courier_payables"`
	PendingPayouts     Amount `json:"pending_payouts"`
	PaidPayouts        Amount `json:"paid_payouts"`
	Refunds            Amount `json:"refunds"`
	NetRevenue         Amount `json:"net_revenue"`
	PeriodStart        string `json:"period_start,omitempty"`
	PeriodEnd          string `json:"period_end,omitempty"`
}

type Transaction struct {
	ID          ID     `json:"id"`
	Type        string `json:"type"` // order, payout, refund, fee
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type TransactionFilter struct {
	Type    string
	Status  string
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

func (f TransactionFilter) query() Query {
	q := Query{
		{Key: "type", Value: f.Type},
		{Key: "status", Value: f.Status},
		{Key: "from", Value: f.From},
		{Key: "to", Value: f.To},
	}
	return withPaging(q, f.Page, f.PerPage)
}

func (c *Client) financeResolution(suffix string, q Query, demo func() (any, error)) Resolution {
	return Resolution{
		Family:     FinanceFamily,
		Candidates: FinanceCandidates,
		Suffix:     suffix,
		Request: Request{
			Method:       http.MethodGet,
			Query:        q,
			AuthRequired: true,
		},
		Default: demo,
	}
}

// GetFinanceOverview returns the platform totals between from and to (zero times are omitted)
func (c *Client) GetFinanceOverview(ctx context.Context, from, to time.Time) (*FinanceOverview, error) {
	q := Query{
		{Key: "from", Value: from},
		{Key: "to", Value: to},
	}
	res := c.financeResolution("overview", q, func() (any, error) {
		return DemoFinanceOverview(time.Now()), nil
	})

	p, err := c.Resolve(ctx, res)
	if err != nil {
		return nil, err
	}
	var overview FinanceOverview
	if err := p.Decode(&overview); err != nil {
		return nil, fmt.Errorf("decoding finance overview: %w", err)
	}
	return &overview, nil
}

func (c *Client) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	res := c.financeResolution("transactions", filter.query(), func() (any, error) {
		return DemoTransactions(time.Now(), 20), nil
	})

	p, err := c.Resolve(ctx, res)
	if err != nil {
		return nil, err
	}
	txs, err := DecodeCollection[Transaction](p)
	if err != nil {
		return nil, fmt.Errorf("decoding finance transactions: %w", err)
	}
	return txs, nil
}
