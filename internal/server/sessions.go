package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/client"
	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"github.com/google/uuid"
)

// SessionIdleTimeout is how long an unused browser session is kept
const SessionIdleTimeout = 12 * time.Hour

// browserSession is the API session held on behalf of one browser
type browserSession struct {
	id     string
	client *client.Client

	// search cancels the previous search of this browser when a new one arrives
	search client.Superseder

	lastSeen time.Time
}

// sessionRegistry maps session cookies to browser sessions
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*browserSession

	newClient func(store *session.Store) *client.Client
	logger    *slog.Logger
}

func newSessionRegistry(newClient func(store *session.Store) *client.Client, logger *slog.Logger) *sessionRegistry {
	return &sessionRegistry{
		sessions:  make(map[string]*browserSession),
		newClient: newClient,
		logger:    logger,
	}
}

// create starts an empty session. When its store is cleared with a redirect (the API answered 401)
// the session is dropped from the registry.
func (reg *sessionRegistry) create() *browserSession {
	id := uuid.NewString()

	store := session.NewStore(session.NewMemoryBackend(),
		session.WithLogger(reg.logger),
		session.WithRedirect(func() {
			reg.remove(id)
		}),
	)

	bs := &browserSession{
		id:       id,
		client:   reg.newClient(store),
		lastSeen: time.Now(),
	}

	reg.mu.Lock()
	reg.sessions[id] = bs
	reg.mu.Unlock()
	return bs
}

func (reg *sessionRegistry) get(id string) (*browserSession, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	bs, ok := reg.sessions[id]
	if ok {
		bs.lastSeen = time.Now()
	}
	return bs, ok
}

func (reg *sessionRegistry) remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.sessions, id)
}

func (reg *sessionRegistry) count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// sweep drops sessions not used since before cutoff and returns how many were dropped
func (reg *sessionRegistry) sweep(cutoff time.Time) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	dropped := 0
	for id, bs := range reg.sessions {
		if bs.lastSeen.Before(cutoff) {
			delete(reg.sessions, id)
			dropped++
		}
	}
	return dropped
}

// runSweeper drops idle sessions until ctx is done
func (reg *sessionRegistry) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := reg.sweep(now.Add(-SessionIdleTimeout)); n > 0 {
				reg.logger.Info("idle console sessions dropped",
					slog.String("component", "server.sessions"),
					slog.Int("count", n),
				)
			}
		}
	}
}

func sessionCookie(id, environment string) *http.Cookie {
	return &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   environment == "prod" || environment == "staging",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionIdleTimeout.Seconds()),
	}
}

func expiredSessionCookie(environment string) *http.Cookie {
	c := sessionCookie("", environment)
	c.MaxAge = -1
	return c
}
