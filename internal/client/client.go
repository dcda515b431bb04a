// Package client is the resilient API layer used by the admin console and the CLI.
//
// It attaches the session token to requests, unwraps {"data": ...} envelopes, classifies failures
// (AuthExpiredError, HTTPError, NetworkError) and, for resources served under more than one
// historical path prefix, probes the candidate prefixes and remembers the one that answers.
// Domain operations live in one file per area (users.go, payouts.go, ...).
package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"golang.org/x/time/rate"
)

// Options configures a Client
type Options struct {
	BaseURL string

	// Timeout is the default per-request ceiling; 0 disables it
	Timeout time.Duration

	// DemoMode allows resolvers to serve generated data when no endpoint exists.
	// It must never be enabled against a production API.
	DemoMode bool

	// RateLimit throttles outgoing calls; 0 disables throttling
	RateLimit rate.Limit
	RateBurst int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OptionsFromConfig maps the shared configuration onto client options
func OptionsFromConfig(cfg *config.Config, log *slog.Logger) Options {
	return Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		DemoMode:  cfg.DemoMode,
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateLimitBurst,
		Logger:    log,
	}
}

// Client handles communication with the Inksa admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	demoMode   bool
	limiter    *rate.Limiter
	store      *session.Store
	resolver   *Resolver
	logger     *slog.Logger
}

// NewClient creates a client bound to a session store and an endpoint resolver.
// Clients that share a resolver share the memoized endpoint prefixes.
func NewClient(opts Options, store *session.Store, resolver *Resolver) *Client {
	if store == nil {
		store = session.NewStore(session.NewMemoryBackend())
	}
	if resolver == nil {
		resolver = NewResolver()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// no client-wide timeout: the ceiling is applied per request through the context
		httpClient = &http.Client{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    opts.Timeout,
		demoMode:   opts.DemoMode,
		store:      store,
		resolver:   resolver,
		logger:     log,
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	return c
}

func (c *Client) Session() *session.Store { return c.store }

func (c *Client) Resolver() *Resolver { return c.resolver }

func (c *Client) DemoMode() bool { return c.demoMode }

func (c *Client) BaseURL() string { return c.baseURL }
