package client

import (
	"context"
	"net/http"
	"strconv"
)

const bannersPath = "/api/admin/banners"

type Banner struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
	Active   bool   `json:"is_active"`
	StartsAt string `json:"starts_at,omitempty"`
	EndsAt   string `json:"ends_at,omitempty"`
}

// BannerInput is sent as multipart form data so that the image can be uploaded with it
type BannerInput struct {
	Title     string
	LinkURL   string
	Position  int
	Active    bool
	StartsAt  string
	EndsAt    string
	Image     []byte
	ImageName string
}

func (in BannerInput) form() *Form {
	f := NewForm().
		Field("title", in.Title).
		Field("link_url", in.LinkURL).
		Field("position", strconv.Itoa(in.Position)).
		Field("is_active", strconv.FormatBool(in.Active)).
		Field("starts_at", in.StartsAt).
		Field("ends_at", in.EndsAt)
	if len(in.Image) > 0 {
		name := in.ImageName
		if name == "" {
			name = "banner.png"
		}
		f.File("image", name, in.Image)
	}
	return f
}

// ListBanners returns all banners, or only active/inactive ones when active is set
func (c *Client) ListBanners(ctx context.Context, active *bool) ([]Banner, error) {
	return list[Banner](ctx, c, bannersPath, Query{{Key: "active", Value: active}})
}

func (c *Client) CreateBanner(ctx context.Context, input BannerInput) (*Banner, error) {
	var b Banner
	if err := c.send(ctx, http.MethodPost, bannersPath, input.form(), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBanner replaces the banner fields; the image is only replaced when one is supplied
func (c *Client) UpdateBanner(ctx context.Context, id string, input BannerInput) (*Banner, error) {
	var b Banner
	if err := c.send(ctx, http.MethodPut, resourcePath(bannersPath, id), input.form(), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBanner(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath(bannersPath, id), nil, nil)
}
