package client

import (
	"context"
	"net/http"
)

const restaurantsPath = "/api/admin/restaurants"

type Restaurant struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	OwnerEmail string  `json:"owner_email"`
	Phone      string  `json:"phone,omitempty"`
	Address    string  `json:"address,omitempty"`
	Category   string  `json:"category,omitempty"`
	Status     string  `json:"status"`
	Rating     float64 `json:"rating"`
	CreatedAt  string  `json:"created_at"`
}

type RestaurantFilter struct {
	Search   string
	Status   string // pending, approved, rejected, suspended
	Category string
	Page     int
	PerPage  int
}

func (f RestaurantFilter) query() Query {
	q := Query{
		{Key: "search", Value: f.Search},
		{Key: "status", Value: f.Status},
		{Key: "category", Value: f.Category},
	}
	return withPaging(q, f.Page, f.PerPage)
}

type RestaurantInput struct {
	Name       string `json:"name"`
	OwnerEmail string `json:"owner_email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	Category   string `json:"category,omitempty"`
}

func (c *Client) ListRestaurants(ctx context.Context, filter RestaurantFilter) ([]Restaurant, error) {
	return list[Restaurant](ctx, c, restaurantsPath, filter.query())
}

func (c *Client) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	var r Restaurant
	if err := c.get(ctx, resourcePath(restaurantsPath, id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateRestaurant(ctx context.Context, input RestaurantInput) (*Restaurant, error) {
	var r Restaurant
	if err := c.send(ctx, http.MethodPost, restaurantsPath, input, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) UpdateRestaurant(ctx context.Context, id string, input RestaurantInput) (*Restaurant, error) {
	var r Restaurant
	if err := c.send(ctx, http.MethodPut, resourcePath(restaurantsPath, id), input, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SetRestaurantStatus approves, rejects or suspends a restaurant. The reason is optional.
func (c *Client) SetRestaurantStatus(ctx context.Context, id, status, reason string) error {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	return c.send(ctx, http.MethodPatch, resourcePath(restaurantsPath, id, "status"), body, nil)
}

func (c *Client) DeleteRestaurant(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath(restaurantsPath, id), nil, nil)
}
