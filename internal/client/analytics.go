package client

import (
	"context"
	"time"
)

const analyticsPath = "/api/admin/analytics"

// DashboardMetrics are the headline counters shown on the console home page
type DashboardMetrics struct {
	TotalOrders       int     `json:"total_orders"`
	OrdersToday       int     `json:"orders_today"`
	Revenue           Amount  `json:"revenue"`
	RevenueToday      Amount  `json:"revenue_today"`
	ActiveRestaurants int     `json:"active_restaurants"`
	ActiveCouriers    int     `json:"active_couriers"`
	ActiveClients     int     `json:"active_clients"`
	AverageTicket     Amount  `json:"average_ticket"`
	AverageRating     float64 `json:"average_rating"`
}

type RevenuePoint struct {
	Date    string `json:"date"`
	Revenue Amount `json:"revenue"`
	Orders  int    `json:"orders"`
}

type RestaurantRanking struct {
	RestaurantID ID     `json:"restaurant_id"`
	Name         string `json:"name"`
	Orders       int    `json:"orders"`
	Revenue      Amount `json:"revenue"`
}

// Period selects the aggregation window of analytics queries
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (c *Client) GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var m DashboardMetrics
	if err := c.get(ctx, analyticsPath+"/dashboard", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetRevenueSeries returns revenue grouped by period between from and to (zero times are omitted)
func (c *Client) GetRevenueSeries(ctx context.Context, period Period, from, to time.Time) ([]RevenuePoint, error) {
	q := Query{
		{Key: "period", Value: period},
		{Key: "from", Value: from},
		{Key: "to", Value: to},
	}
	return list[RevenuePoint](ctx, c, analyticsPath+"/revenue", q)
}

func (c *Client) GetTopRestaurants(ctx context.Context, limit int) ([]RestaurantRanking, error) {
	var q Query
	if limit > 0 {
		q = q.Add("limit", limit)
	}
	return list[RestaurantRanking](ctx, c, analyticsPath+"/top-restaurants", q)
}
