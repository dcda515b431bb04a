package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv points the CLI at a fake API and a temporary session file
func testEnv(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("SESSION_FILE", sessionFile)
	t.Setenv("DEMO_MODE", "false")
	return sessionFile
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func fakeAPI(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"access_token":"t1","user":{"id":7,"name":"Ana","email":"ana@inksa.com.br","role":"admin"}}`))
		case "/api/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/api/admin/users":
			if r.Header.Get("Authorization") != "Bearer t1" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"missing token"}`))
				return
			}
			if got := r.URL.RawQuery; got != "role=courier" {
				t.Errorf("users query = %q, want role=courier", got)
			}
			_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Bruno","role":"courier"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestLoginPromptsAndSavesSession(t *testing.T) {
	sessionFile := testEnv(t, fakeAPI(t))

	stdout, _, err := run(t, "ana@inksa.com.br\nsecret\n", "login")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(stdout, "signed in as Ana (admin)") {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if !strings.Contains(string(data), "t1") {
		t.Errorf("session file = %s, want the token", data)
	}

	stdout, _, err = run(t, "", "whoami", "--offline")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(stdout, "Ana <ana@inksa.com.br> role=admin id=7") {
		t.Errorf("whoami stdout = %q", stdout)
	}

	if _, _, err := run(t, "", "logout"); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if _, _, err := run(t, "", "whoami", "--offline"); err == nil {
		t.Error("whoami after logout succeeded, want not signed in")
	}
}

func TestListAndExport(t *testing.T) {
	testEnv(t, fakeAPI(t))
	if _, _, err := run(t, "", "login", "--email", "ana@inksa.com.br", "--password", "secret"); err != nil {
		t.Fatalf("login error = %v", err)
	}

	stdout, _, err := run(t, "", "list", "users", "--filter", "role=courier")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(stdout, `"name": "Bruno"`) {
		t.Errorf("list stdout = %s", stdout)
	}

	out := filepath.Join(t.TempDir(), "users.csv")
	_, stderr, err := run(t, "", "export", "users", "-f", "role=courier", "-o", out)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(stderr, "1 rows written") {
		t.Errorf("export stderr = %q", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.HasPrefix(string(data), `"ID","Nome"`) {
		t.Errorf("export = %s", data)
	}
}

func TestExpiredSessionAsksToLogin(t *testing.T) {
	testEnv(t, fakeAPI(t))

	_, stderr, err := run(t, "", "list", "users", "--filter", "role=courier")
	if !errors.Is(err, errSessionExpired) {
		t.Fatalf("list error = %v, want errSessionExpired", err)
	}
	if n := strings.Count(stderr, "session expired"); n != 1 {
		t.Errorf("stderr = %q, want the login hint exactly once", stderr)
	}
	if strings.Contains(stderr, "Your session has expired") {
		t.Errorf("stderr = %q, want a single expiry message", stderr)
	}
}

func TestPromptPasswordFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	_, _ = w.WriteString("secret\n")
	_ = w.Close()

	var stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetIn(r)
	cmd.SetErr(&stderr)

	got, err := promptPassword(cmd, bufio.NewReader(r), "password: ")
	if err != nil {
		t.Fatalf("promptPassword() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("promptPassword() = %q, want secret", got)
	}
	if stderr.String() != "password: " {
		t.Errorf("prompt = %q, want the label only", stderr.String())
	}
}

func TestCommandArgumentErrors(t *testing.T) {
	testEnv(t, fakeAPI(t))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown resource", []string{"list", "orders"}, `unknown resource "orders"`},
		{"bad filter", []string{"list", "users", "-f", "role"}, `invalid filter "role"`},
		{"bad date", []string{"finance", "overview", "--from", "2024/01/01"}, "--from must be a date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
