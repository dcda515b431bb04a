package client

import (
	"context"
	"net/http"
)

const usersPath = "/api/admin/users"

type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type UserFilter struct {
	Search  string
	Role    string // client, courier, restaurant, admin
	Status  string
	Page    int
	PerPage int
}

func (f UserFilter) query() Query {
	q := Query{
		{Key: "search", Value: f.Search},
		{Key: "role", Value: f.Role},
		{Key: "status", Value: f.Status},
	}
	return withPaging(q, f.Page, f.PerPage)
}

type UserUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// withPaging adds page and per_page when they are set
func withPaging(q Query, page, perPage int) Query {
	if page > 0 {
		q = q.Add("page", page)
	}
	if perPage > 0 {
		q = q.Add("per_page", perPage)
	}
	return q
}

// ListUsers returns the platform accounts matching the filter
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	return list[User](ctx, c, usersPath, filter.query())
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.get(ctx, resourcePath(usersPath, id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes the supplied fields only
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	var user User
	if err := c.send(ctx, http.MethodPut, resourcePath(usersPath, id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserStatus activates or blocks an account
func (c *Client) SetUserStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.send(ctx, http.MethodPatch, resourcePath(usersPath, id, "status"), body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath(usersPath, id), nil, nil)
}
