// Package session holds the operator's auth token and cached profile.
//
// A Store is an explicit object owned by whoever runs the client: the CLI keeps one backed by a
// file, the console server keeps one per browser session backed by memory. Persistence is best
// effort: backend failures are logged and otherwise ignored, which degrades to "logged out".
package session

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const (
	TokenKey   = "inksa_admin_token"
	ProfileKey = "inksa_admin_user"
)

// ClearOptions controls session teardown
type ClearOptions struct {
	// Redirect asks the owner of the store to send the operator to the login view
	Redirect bool
}

// Store is safe for concurrent use
type Store struct {
	mu         sync.Mutex
	backend    Backend
	logger     *slog.Logger
	onRedirect func()
}

type Option func(*Store)

// WithRedirect sets the hook called by Clear when a redirect to the login view is requested
func WithRedirect(fn func()) Option {
	return func(s *Store) { s.onRedirect = fn }
}

// WithLogger sets the logger used to report swallowed backend failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the persisted token or "" when there is none
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok, err := s.backend.Load(TokenKey)
	if err != nil {
		s.swallow("load token", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// SetToken persists the token. An empty token clears the session, including the cached profile.
func (s *Store) SetToken(token string) {
	if token == "" {
		s.Clear(ClearOptions{})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(TokenKey, token); err != nil {
		s.swallow("save token", err)
	}
}

// Profile returns the cached profile, or nil when there is no token or no profile
func (s *Store) Profile() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok, err := s.backend.Load(TokenKey); err != nil || !ok || token == "" {
		return nil
	}

	raw, ok, err := s.backend.Load(ProfileKey)
	if err != nil {
		s.swallow("load profile", err)
		return nil
	}
	if !ok || raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

// SetProfile caches the profile. A nil or JSON null profile removes it.
func (s *Store) SetProfile(profile json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(profile) == 0 || string(profile) == "null" {
		if err := s.backend.Delete(ProfileKey); err != nil {
			s.swallow("delete profile", err)
		}
		return
	}

	if err := s.backend.Save(ProfileKey, string(profile)); err != nil {
		s.swallow("save profile", err)
	}
}

// Authenticated reports whether a token is present
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Clear removes the token and profile, then calls the redirect hook if requested.
// This is the only place a session is torn down.
func (s *Store) Clear(opts ClearOptions) {
	s.mu.Lock()
	if err := s.backend.Delete(TokenKey); err != nil {
		s.swallow("delete token", err)
	}
	if err := s.backend.Delete(ProfileKey); err != nil {
		s.swallow("delete profile", err)
	}
	redirect := s.onRedirect
	s.mu.Unlock()

	if opts.Redirect && redirect != nil {
		redirect()
	}
}

func (s *Store) swallow(op string, err error) {
	s.logger.Debug("session persistence failed",
		slog.String("component", "session.Store"),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
