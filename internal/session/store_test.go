package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/golang-jwt/jwt/v5"
)

type failingBackend struct{}

func (failingBackend) Load(string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingBackend) Save(string, string) error { return errors.New("disk on fire") }
func (failingBackend) Delete(string) error       { return errors.New("disk on fire") }

func TestStoreTokenAndProfile(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	if got := store.Token(); got != "" {
		t.Fatalf("Token() = %q, want empty for a new store", got)
	}
	if store.Authenticated() {
		t.Fatal("Authenticated() = true, want false for a new store")
	}

	store.SetToken("t1")
	store.SetProfile(json.RawMessage(`{"id":7,"name":"Ana"}`))

	if got := store.Token(); got != "t1" {
		t.Errorf("Token() = %q, want %q", got, "t1")
	}
	if got := string(store.Profile()); got != `{"id":7,"name":"Ana"}` {
		t.Errorf("Profile() = %s, want the cached profile", got)
	}

	// clearing the token also clears the profile
	store.SetToken("")
	if got := store.Token(); got != "" {
		t.Errorf("Token() = %q after SetToken(\"\"), want empty", got)
	}
	store.SetToken("t2")
	if got := store.Profile(); got != nil {
		t.Errorf("Profile() = %s after token was cleared, want nil", got)
	}
}

func TestStoreProfileRequiresToken(t *testing.T) {
	backend := NewMemoryBackend()
	_ = backend.Save(ProfileKey, `{"id":1}`)

	store := NewStore(backend)
	if got := store.Profile(); got != nil {
		t.Errorf("Profile() = %s without a token, want nil", got)
	}
}

func TestStoreSetProfileNull(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	store.SetToken("t1")
	store.SetProfile(json.RawMessage(`{"id":1}`))
	store.SetProfile(json.RawMessage(`null`))

	if got := store.Profile(); got != nil {
		t.Errorf("Profile() = %s, want nil after setting a null profile", got)
	}
}

func TestStoreClear(t *testing.T) {
	tests := []struct {
		name         string
		opts         ClearOptions
		wantRedirect bool
	}{
		{name: "logout without redirect", opts: ClearOptions{}, wantRedirect: false},
		{name: "session expiry with redirect", opts: ClearOptions{Redirect: true}, wantRedirect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redirected := false
			var tokenAtRedirect string

			var store *Store
			store = NewStore(NewMemoryBackend(), WithRedirect(func() {
				redirected = true
				tokenAtRedirect = store.Token()
			}))
			store.SetToken("t1")
			store.SetProfile(json.RawMessage(`{"id":7}`))

			store.Clear(tt.opts)

			if store.Token() != "" || store.Profile() != nil {
				t.Errorf("Clear() left token=%q profile=%s", store.Token(), store.Profile())
			}
			if redirected != tt.wantRedirect {
				t.Errorf("redirect hook called = %v, want %v", redirected, tt.wantRedirect)
			}
			if redirected && tokenAtRedirect != "" {
				t.Errorf("token = %q inside redirect hook, want it already cleared", tokenAtRedirect)
			}
		})
	}
}

func TestStoreSwallowsBackendFailures(t *testing.T) {
	store := NewStore(failingBackend{}, WithLogger(logger.Discard()))

	store.SetToken("t1")
	store.SetProfile(json.RawMessage(`{"id":1}`))
	store.Clear(ClearOptions{Redirect: true})

	if got := store.Token(); got != "" {
		t.Errorf("Token() = %q with a failing backend, want empty", got)
	}
	if got := store.Profile(); got != nil {
		t.Errorf("Profile() = %s with a failing backend, want nil", got)
	}
}

func TestFileBackendPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := NewStore(NewFileBackend(path))
	first.SetToken("t1")
	first.SetProfile(json.RawMessage(`{"id":7}`))

	second := NewStore(NewFileBackend(path))
	if got := second.Token(); got != "t1" {
		t.Errorf("Token() = %q from a fresh store, want %q", got, "t1")
	}
	if got := string(second.Profile()); got != `{"id":7}` {
		t.Errorf("Profile() = %s from a fresh store, want {\"id\":7}", got)
	}

	second.Clear(ClearOptions{})
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file still present after Clear(): %v", err)
	}
	if got := first.Token(); got != "" {
		t.Errorf("Token() = %q after clear through another store, want empty", got)
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(NewFileBackend(path), WithLogger(logger.Discard()))
	if got := store.Token(); got != "" {
		t.Errorf("Token() = %q from a corrupt file, want empty", got)
	}

	store.SetToken("fresh")
	if got := store.Token(); got != "fresh" {
		t.Errorf("Token() = %q after overwriting a corrupt file, want %q", got, "fresh")
	}
}

func TestTokenStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	sign := func(exp time.Time) string {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return token
	}

	tests := []struct {
		name  string
		token string
		want  TokenStatus
	}{
		{name: "no token", token: "", want: TokenMissing},
		{name: "opaque token", token: "t1", want: TokenOpaque},
		{name: "expired jwt", token: sign(now.Add(-time.Minute)), want: TokenExpired},
		{name: "valid jwt", token: sign(now.Add(time.Hour)), want: TokenValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenStatus(tt.token, now); got != tt.want {
				t.Errorf("tokenStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenStatusString(t *testing.T) {
	if got := TokenExpired.String(); got != "TokenExpired" {
		t.Errorf("String() = %q, want TokenExpired", got)
	}
	if got := TokenStatus(42).String(); got != "TokenStatus(42)" {
		t.Errorf("String() = %q, want TokenStatus(42)", got)
	}
}
