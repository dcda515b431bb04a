package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/session"
)

func TestExecuteUnwrapsEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     string
		wantJSON bool
	}{
		{"data envelope", `{"data":{"id":1,"name":"x"},"meta":{"page":1}}`, `{"id":1,"name":"x"}`, true},
		{"data envelope with array", `{"data":[1,2],"total":2}`, `[1,2]`, true},
		{"bare object", `{"id":1}`, `{"id":1}`, true},
		{"bare array", `[1,2,3]`, `[1,2,3]`, true},
		{"scalar", `42`, `42`, true},
		{"text", `pong`, `pong`, false},
		{"empty", ``, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			p, err := c.Execute(context.Background(), Request{Path: "/x"})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := p.Text(); got != tt.want {
				t.Errorf("payload = %q, want %q", got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestExecuteAuthExpiredClearsSessionFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	}))
	t.Cleanup(server.Close)

	tokenSeenByRedirect := "unset"
	redirects := 0
	var store *session.Store
	store = session.NewStore(session.NewMemoryBackend(), session.WithRedirect(func() {
		redirects++
		tokenSeenByRedirect = store.Token()
	}))
	store.SetToken("t1")
	store.SetProfile(json.RawMessage(`{"id":7}`))

	c := NewClient(Options{BaseURL: server.URL}, store, nil)

	_, err := c.Execute(context.Background(), Request{Path: "/api/admin/users", AuthRequired: true})

	var authErr *AuthExpiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("Execute() error = %v, want *AuthExpiredError", err)
	}
	if store.Token() != "" || store.Profile() != nil {
		t.Errorf("session not cleared: token %q profile %s", store.Token(), store.Profile())
	}
	if redirects != 1 {
		t.Errorf("redirect hook called %d times, want 1", redirects)
	}
	if tokenSeenByRedirect != "" {
		t.Errorf("redirect hook saw token %q, want the session already cleared", tokenSeenByRedirect)
	}
	if !IsAuthExpired(err) {
		t.Error("IsAuthExpired() = false, want true")
	}
}

func TestExecute401WithoutAuthKeepsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid credentials"}`)
	})
	store.SetToken("t1")

	_, err := c.Execute(context.Background(), Request{Method: http.MethodPost, Path: "/api/auth/login"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Execute() error = %v, want HTTPError 401", err)
	}
	if httpErr.Message != "invalid credentials" {
		t.Errorf("Message = %q, want %q", httpErr.Message, "invalid credentials")
	}
	if store.Token() != "t1" {
		t.Errorf("Token() = %q, want session untouched", store.Token())
	}
}

func TestExecuteHTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
		wantUser    string
	}{
		{"message field", 400, `{"message":"email is invalid","error_code":"validation_error"}`, "email is invalid", "validation_error", "email is invalid"},
		{"error string", 422, `{"error":"amount must be positive"}`, "amount must be positive", "", "amount must be positive"},
		{"nested error", 409, `{"error":{"message":"already processed","code":"conflict"}}`, "already processed", "conflict", "already processed"},
		{"detail field", 403, `{"detail":"admins only"}`, "admins only", "", "You don't have permission to access this resource."},
		{"html body", 502, `<html>bad gateway</html>`, "request failed (502)", "", "The service is temporarily unavailable. Please try again later."},
		{"empty body", 400, ``, "request failed (400)", "", "Invalid request. Please check your input and try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Execute(context.Background(), Request{Path: "/x"})

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("Execute() error = %v, want *HTTPError", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMessage)
			}
			if httpErr.ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %q, want %q", httpErr.ErrorCode, tt.wantCode)
			}
			if got := UserMessage(err); got != tt.wantUser {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestExecuteNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(Options{BaseURL: url}, nil, nil)
	_, err := c.Execute(context.Background(), Request{Path: "/x"})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Execute() error = %v, want *NetworkError", err)
	}
	if netErr.Timeout {
		t.Error("Timeout = true, want false for a refused connection")
	}
	if IsAborted(err) {
		t.Error("IsAborted() = true, want false")
	}
}

func TestExecuteTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, func(o *Options) {
		o.Timeout = 20 * time.Millisecond
	})

	_, err := c.Execute(context.Background(), Request{Path: "/slow"})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Execute() error = %v, want *NetworkError", err)
	}
	if !netErr.Timeout {
		t.Error("Timeout = false, want true")
	}
	if got := UserMessage(err); got != "The server took too long to respond. Please try again." {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestExecuteAborted(t *testing.T) {
	started := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Execute(ctx, Request{Path: "/search"})
	if !IsAborted(err) {
		t.Fatalf("Execute() error = %v, want ErrAborted", err)
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		t.Error("aborted call reported as a NetworkError")
	}
}

func TestExecuteBodyContentType(t *testing.T) {
	tests := []struct {
		name      string
		body      any
		header    http.Header
		wantType  string
		wantMulti bool
	}{
		{name: "json", body: map[string]string{"a": "b"}, wantType: "application/json"},
		{name: "bytes", body: []byte{0x89, 'P', 'N', 'G'}, wantType: ""},
		{name: "reader", body: strings.NewReader("raw"), wantType: ""},
		{name: "form", body: NewForm().Field("title", "Promo").File("image", "a.png", []byte("png")), wantMulti: true},
		{
			name:      "form ignores content type override",
			body:      NewForm().Field("title", "Promo"),
			header:    http.Header{"Content-Type": []string{"application/json"}},
			wantMulti: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotType = r.Header.Get("Content-Type")
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(http.StatusNoContent)
			})

			_, err := c.Execute(context.Background(), Request{
				Method: http.MethodPost,
				Path:   "/upload",
				Body:   tt.body,
				Header: tt.header,
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if tt.wantMulti {
				if !strings.HasPrefix(gotType, "multipart/form-data; boundary=") {
					t.Errorf("Content-Type = %q, want multipart with boundary", gotType)
				}
				return
			}
			if gotType != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", gotType, tt.wantType)
			}
		})
	}
}

func TestExecuteHeaders(t *testing.T) {
	tests := []struct {
		name         string
		authRequired bool
		wantAuth     string
	}{
		{"auth required", true, "Bearer t1"},
		{"public call", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header
			c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				writeJSON(w, http.StatusOK, `{}`)
			})
			store.SetToken("t1")

			_, err := c.Execute(context.Background(), Request{
				Path:         "/x",
				AuthRequired: tt.authRequired,
				Header:       http.Header{"X-Trace": []string{"abc"}},
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if a := got.Get("Authorization"); a != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", a, tt.wantAuth)
			}
			if got.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q, want application/json", got.Get("Accept"))
			}
			if got.Get("X-Request-ID") == "" {
				t.Error("X-Request-ID missing")
			}
			if got.Get("X-Trace") != "abc" {
				t.Errorf("X-Trace = %q, want override applied", got.Get("X-Trace"))
			}
		})
	}
}

func TestExecuteRequestIsReusable(t *testing.T) {
	var bodies []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		writeJSON(w, http.StatusOK, `{}`)
	})

	req := Request{Method: http.MethodPost, Path: "/x", Body: map[string]int{"n": 1}}
	for i := 0; i < 2; i++ {
		if _, err := c.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if len(bodies) != 2 || bodies[0] != `{"n":1}` || bodies[1] != bodies[0] {
		t.Errorf("bodies = %q, want the same JSON body twice", bodies)
	}
}
