package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// ResolutionState tracks endpoint discovery for one resource family
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	Probing
	Resolved
	Exhausted // every candidate answered 404
)

var resolutionStateNames = []string{"Unresolved", "Probing", "Resolved", "Exhausted"}

func (s ResolutionState) String() string {
	if s < 0 || int(s) >= len(resolutionStateNames) {
		return fmt.Sprintf("ResolutionState(%d)", int(s))
	}
	return resolutionStateNames[s]
}

type familyState struct {
	state  ResolutionState
	prefix string
}

// Resolver remembers which path prefix serves each resource family.
// It lives for the whole process and is shared by every Client that should reuse the discovery.
type Resolver struct {
	mu       sync.Mutex
	families map[string]*familyState
}

func NewResolver() *Resolver {
	return &Resolver{families: make(map[string]*familyState)}
}

// State returns the resolution state of a family and the memoized prefix, if any
func (r *Resolver) State(family string) (ResolutionState, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[family]
	if !ok {
		return Unresolved, ""
	}
	return f.state, f.prefix
}

// Reset forgets every family. Tests use it; normal operation never re-probes.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families = make(map[string]*familyState)
}

// begin marks the family as probing unless it is already settled
func (r *Resolver) begin(family string) (memo string, exhausted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[family]
	if !ok {
		r.families[family] = &familyState{state: Probing}
		return "", false
	}
	switch f.state {
	case Resolved:
		return f.prefix, false
	case Exhausted:
		return "", true
	default:
		f.state = Probing
		return "", false
	}
}

// resolved memoizes the winning prefix. Concurrent probes write the same winner, so the last write is harmless.
func (r *Resolver) resolved(family, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[family] = &familyState{state: Resolved, prefix: prefix}
}

// abandoned ends a probe that settled nothing, e.g. on a network failure. A family resolved
// meanwhile by another probe keeps its prefix.
func (r *Resolver) abandoned(family string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[family]; ok && f.state == Probing {
		f.state = Unresolved
	}
}

func (r *Resolver) exhausted(family string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[family]; ok && f.state == Resolved {
		return
	}
	r.families[family] = &familyState{state: Exhausted}
}

// Resolution describes a logical operation that may be served under several path prefixes
type Resolution struct {
	Family     string
	Candidates []string
	Suffix     string

	// Request is sent once per tried prefix; its Path is replaced by prefix+Suffix
	Request Request

	// Default produces stand-in data when no candidate exists. It is only used in demo mode.
	Default func() (any, error)
}

// Resolve tries the memoized prefix, then the candidates in order, until one answers with
// something other than 404. That prefix is memoized for the family, whether the answer was a
// success or a real error such as a 400. Network failures and non-404 errors are returned
// immediately without trying further candidates.
func (c *Client) Resolve(ctx context.Context, res Resolution) (*Payload, error) {
	if res.Family == "" {
		return nil, errors.New("resolution family is required")
	}

	memo, exhausted := c.resolver.begin(res.Family)
	if exhausted {
		return c.resolutionFallback(res)
	}

	for _, prefix := range candidateOrder(memo, res.Candidates) {
		req := res.Request
		req.Path = joinPath(prefix, res.Suffix)

		payload, err := c.Execute(ctx, req)
		if err == nil {
			c.resolver.resolved(res.Family, prefix)
			return payload, nil
		}

		if IsNotFound(err) {
			c.logger.Debug("endpoint candidate not found",
				slog.String("component", "client.Resolve"),
				slog.String("family", res.Family),
				slog.String("path", req.Path),
			)
			continue
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) || IsAuthExpired(err) {
			c.resolver.resolved(res.Family, prefix)
		} else {
			c.resolver.abandoned(res.Family)
		}
		return nil, err
	}

	c.resolver.exhausted(res.Family)
	return c.resolutionFallback(res)
}

func (c *Client) resolutionFallback(res Resolution) (*Payload, error) {
	if c.demoMode && res.Default != nil {
		c.logger.Warn("no endpoint available - serving demo data",
			slog.String("component", "client.Resolve"),
			slog.String("family", res.Family),
		)
		v, err := res.Default()
		if err != nil {
			return nil, fmt.Errorf("generating demo data for %s: %w", res.Family, err)
		}
		return jsonPayload(v)
	}

	return nil, &HTTPError{
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("no endpoint found for %s", res.Family),
		Method:     res.Request.Method,
		Path:       res.Suffix,
	}
}

// candidateOrder puts the memoized prefix first and removes duplicates
func candidateOrder(memo string, candidates []string) []string {
	order := make([]string, 0, len(candidates)+1)
	seen := make(map[string]bool, len(candidates)+1)
	if memo != "" {
		order = append(order, memo)
		seen[memo] = true
	}
	for _, c := range candidates {
		if !seen[c] {
			order = append(order, c)
			seen[c] = true
		}
	}
	return order
}

func joinPath(prefix, suffix string) string {
	if suffix == "" {
		return prefix
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(suffix, "/")
}
