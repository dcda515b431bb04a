package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStatus describes the stored token as seen by the client, without contacting the API
type TokenStatus int

const (
	TokenMissing TokenStatus = iota
	TokenOpaque              // not a JWT: only the API can tell whether it is still valid
	TokenExpired
	TokenValid
)

var tokenStatusNames = []string{"TokenMissing", "TokenOpaque", "TokenExpired", "TokenValid"}

func (t TokenStatus) String() string {
	if t < 0 || int(t) >= len(tokenStatusNames) {
		return fmt.Sprintf("TokenStatus(%d)", int(t))
	}
	return tokenStatusNames[t]
}

// Status inspects the stored token. JWTs are parsed without signature verification, only to read the expiry.
func (s *Store) Status() TokenStatus {
	return tokenStatus(s.Token(), time.Now())
}

// ExpiresAt returns the token expiry when the token is a JWT carrying an exp claim
func (s *Store) ExpiresAt() (time.Time, bool) {
	claims, ok := parseClaims(s.Token())
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func tokenStatus(token string, now time.Time) TokenStatus {
	if token == "" {
		return TokenMissing
	}

	claims, ok := parseClaims(token)
	if !ok {
		return TokenOpaque
	}

	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return TokenExpired
	}
	return TokenValid
}

func parseClaims(token string) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
