package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/apperrors"
	"github.com/diego00711/inksa-admin-sub000/internal/client"
	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/export"
	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/diego00711/inksa-admin-sub000/internal/resources"
	"github.com/diego00711/inksa-admin-sub000/internal/response"
	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"github.com/go-chi/chi/v5"
)

type contextKey struct{ name string }

var browserSessionKey = contextKey{"browser-session"}

func sessionFromContext(ctx context.Context) *browserSession {
	bs, _ := ctx.Value(browserSessionKey).(*browserSession)
	return bs
}

// requireSession loads the browser session named by the session cookie and redirects to the
// login page when there is none, or when its token has expired
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.ContextMiddlewareLogger(r.Context())

		cookie, err := r.Cookie(config.SessionCookieName)
		if err != nil {
			reqLogger.Debug("no console session - redirecting to login",
				slog.String("component", "server.requireSession"),
			)
			s.redirectToLogin(w, r)
			return
		}

		bs, ok := s.sessions.get(cookie.Value)
		if !ok {
			reqLogger.Debug("unknown console session - redirecting to login",
				slog.String("component", "server.requireSession"),
			)
			s.redirectToLogin(w, r)
			return
		}

		store := bs.client.Session()
		switch status := store.Status(); status {
		case session.TokenValid, session.TokenOpaque:
		default:
			reqLogger.Debug("console session not authenticated - redirecting to login",
				slog.String("component", "server.requireSession"),
				slog.String("status", status.String()),
			)
			store.Clear(session.ClearOptions{Redirect: true})
			s.sessions.remove(bs.id)
			s.redirectToLogin(w, r)
			return
		}

		if profile, ok := bs.client.CachedProfile(); ok {
			logger.ContextWithLogAttrs(r.Context(), slog.String("account_id", profile.ID.String()))
		}

		ctx := context.WithValue(r.Context(), browserSessionKey, bs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectToLogin drops the session cookie and sends the caller to the login page. The page
// itself belongs to the front end served alongside the console; this server only accepts
// POST /login. Callers asking for JSON get a 401 instead of a redirect.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, expiredSessionCookie(s.config.Environment))

	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
	case wantsJSON(r):
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeSessionExpired, "Your session has expired. Please log in again.")
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// wantsJSON reports whether the Accept header names JSON explicitly
func wantsJSON(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err == nil && mediaType == "application/json" {
				return true
			}
		}
	}
	return false
}

// respondClientError maps an API client error onto the console response
func (s *Server) respondClientError(w http.ResponseWriter, r *http.Request, err error) {
	reqLogger := logger.ContextMiddlewareLogger(r.Context())

	if client.IsAuthExpired(err) {
		// the session store has already been cleared and the browser session dropped
		reqLogger.Info("API session expired - redirecting to login",
			slog.String("component", "server.respondClientError"),
		)
		s.redirectToLogin(w, r)
		return
	}

	if client.IsAborted(err) {
		reqLogger.Debug("request superseded or cancelled",
			slog.String("component", "server.respondClientError"),
		)
		response.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	logger.ContextWithLogAttrs(r.Context(), slog.String("error", err.Error()))

	status, code := clientErrorStatus(err)
	response.RespondWithError(w, r, status, code, client.UserMessage(err))
}

func clientErrorStatus(err error) (int, apperrors.ErrorCode) {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return httpErr.StatusCode, apperrors.ErrCodeInvalidRequest
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, apperrors.ErrCodeAuthenticationFailure
		case http.StatusForbidden:
			return http.StatusForbidden, apperrors.ErrCodeForbidden
		case http.StatusNotFound:
			return http.StatusNotFound, apperrors.ErrCodeResourceNotFound
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests, apperrors.ErrCodeRateLimited
		default:
			return http.StatusBadGateway, apperrors.ErrCodeUpstreamError
		}
	}

	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout {
			return http.StatusGatewayTimeout, apperrors.ErrCodeUpstreamTimeout
		}
		return http.StatusBadGateway, apperrors.ErrCodeUpstreamUnavailable
	}

	if errors.Is(err, client.ErrResponseTooLarge) {
		return http.StatusBadGateway, apperrors.ErrCodeUpstreamError
	}

	return http.StatusInternalServerError, apperrors.ErrCodeInternalError
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates against the API and starts a browser session.
// The credentials may be posted as JSON or as a form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeMalformedBody, "could not decode request body")
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	if req.Email == "" || req.Password == "" {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "email and password are required")
		return
	}

	if old, err := r.Cookie(config.SessionCookieName); err == nil {
		s.sessions.remove(old.Value)
	}

	bs := s.sessions.create()
	result, err := bs.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.sessions.remove(bs.id)
		s.respondClientError(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(r.Context(), slog.String("account_id", result.Profile.ID.String()))

	http.SetCookie(w, sessionCookie(bs.id, s.config.Environment))
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]any{"profile": result.Profile})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	bs := sessionFromContext(r.Context())

	bs.client.Logout(r.Context())
	s.sessions.remove(bs.id)

	http.SetCookie(w, expiredSessionCookie(s.config.Environment))
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	response.RespondWithJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	bs := sessionFromContext(r.Context())

	profile, err := bs.client.Me(r.Context())
	if err != nil {
		s.respondClientError(w, r, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, profile)
}

type resourceListResponse struct {
	Resource string            `json:"resource"`
	Count    int               `json:"count"`
	Items    []json.RawMessage `json:"items"`
}

// handleListResource proxies a catalogue list endpoint. Requests carrying a search term cancel the
// previous search of the same browser, so only the latest search-as-you-type result is returned.
func (s *Server) handleListResource(w http.ResponseWriter, r *http.Request) {
	bs := sessionFromContext(r.Context())

	name := chi.URLParam(r, "resource")
	res, ok := resources.Lookup(name)
	if !ok {
		response.RespondWithError(w, r, http.StatusNotFound, apperrors.ErrCodeResourceNotFound, fmt.Sprintf("unknown resource %q", name))
		return
	}

	ctx := r.Context()
	values := r.URL.Query()
	if values.Has("search") {
		var done context.CancelFunc
		ctx, done = bs.search.Begin(ctx)
		defer done()
	}

	rows, err := res.List(ctx, bs.client, values)
	if err != nil {
		s.respondClientError(w, r, err)
		return
	}

	response.RespondWithJSON(w, http.StatusOK, resourceListResponse{
		Resource: res.Name,
		Count:    len(rows),
		Items:    rows,
	})
}

type dashboardResponse struct {
	Metrics        *client.DashboardMetrics `json:"metrics"`
	Finance        *client.FinanceOverview  `json:"finance"`
	PendingPayouts []client.Payout          `json:"pending_payouts"`
	OpenTickets    []client.Ticket          `json:"open_tickets"`
}

const dashboardListSize = 5

// handleDashboard loads the home page widgets concurrently; any failure fails the whole response
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c := sessionFromContext(r.Context()).client

	var dash dashboardResponse
	err := client.Join(r.Context(),
		func(ctx context.Context) (err error) {
			dash.Metrics, err = c.GetDashboardMetrics(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			dash.Finance, err = c.GetFinanceOverview(ctx, time.Time{}, time.Time{})
			return err
		},
		func(ctx context.Context) (err error) {
			dash.PendingPayouts, err = c.ListPayouts(ctx, client.PayoutFilter{Status: "pending", PerPage: dashboardListSize})
			return err
		},
		func(ctx context.Context) (err error) {
			dash.OpenTickets, err = c.ListTickets(ctx, client.TicketFilter{Status: "open", PerPage: dashboardListSize})
			return err
		},
	)
	if err != nil {
		s.respondClientError(w, r, err)
		return
	}

	response.RespondWithJSON(w, http.StatusOK, dash)
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date (YYYY-MM-DD)", name)
	}
	return t, nil
}

func (s *Server) handleFinanceOverview(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidURLParam, err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidURLParam, err.Error())
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidURLParam, "to must not be before from")
		return
	}

	overview, err := sessionFromContext(r.Context()).client.GetFinanceOverview(r.Context(), from, to)
	if err != nil {
		s.respondClientError(w, r, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, overview)
}

// handleExport downloads a catalogue resource as CSV. The file is built in memory so that API
// failures can still be reported as JSON errors.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bs := sessionFromContext(r.Context())

	name := chi.URLParam(r, "resource")
	res, ok := resources.Lookup(name)
	if !ok {
		response.RespondWithError(w, r, http.StatusNotFound, apperrors.ErrCodeResourceNotFound, fmt.Sprintf("unknown resource %q", name))
		return
	}

	var buf bytes.Buffer
	n, err := res.Export(r.Context(), bs.client, r.URL.Query(), &buf)
	if err != nil {
		s.respondClientError(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("resource", res.Name),
		slog.Int("rows", n),
	)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
