package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/diego00711/inksa-admin-sub000/internal/session"
)

const (
	loginPath  = "/api/auth/login"
	logoutPath = "/api/auth/logout"
	mePath     = "/api/auth/me"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the operator account returned by the login and me endpoints
type Profile struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	Profile    Profile
	RawProfile json.RawMessage
}

// Login authenticates with the API and starts a session: the token and the profile are stored.
// The token is read from "access_token" (or "token") and the profile from "user" (or "profile").
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	p, err := c.Execute(ctx, Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	token := p.Get("access_token").String()
	if token == "" {
		token = p.Get("token").String()
	}
	if token == "" {
		return nil, errors.New("login response did not include an access token")
	}

	rawProfile := p.Get("user")
	if !rawProfile.IsObject() {
		rawProfile = p.Get("profile")
	}

	result := &LoginResult{}
	if rawProfile.IsObject() {
		result.RawProfile = json.RawMessage(rawProfile.Raw)
		if err := json.Unmarshal(result.RawProfile, &result.Profile); err != nil {
			return nil, fmt.Errorf("decoding login profile: %w", err)
		}
	}

	c.store.SetToken(token)
	c.store.SetProfile(result.RawProfile)

	c.logger.Info("operator logged in",
		slog.String("component", "client.Login"),
		slog.String("account_id", result.Profile.ID.String()),
	)
	return result, nil
}

// Logout tells the API the session is over (best effort) and clears the local session
func (c *Client) Logout(ctx context.Context) {
	if c.store.Authenticated() {
		_, err := c.Execute(ctx, Request{
			Method:       http.MethodPost,
			Path:         logoutPath,
			AuthRequired: true,
		})
		if err != nil && !IsAuthExpired(err) {
			c.logger.Debug("logout call failed",
				slog.String("component", "client.Logout"),
				slog.String("error", err.Error()),
			)
		}
	}
	c.store.Clear(session.ClearOptions{})
}

// Me fetches the operator profile and refreshes the cached copy
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	p, err := c.Execute(ctx, Request{
		Method:       http.MethodGet,
		Path:         mePath,
		AuthRequired: true,
	})
	if err != nil {
		return nil, err
	}

	raw := p.Bytes()
	if user := p.Get("user"); user.IsObject() {
		raw = []byte(user.Raw)
	}

	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	c.store.SetProfile(raw)
	return &profile, nil
}

// CachedProfile decodes the profile stored with the session, without calling the API
func (c *Client) CachedProfile() (*Profile, bool) {
	raw := c.store.Profile()
	if raw == nil {
		return nil, false
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}
