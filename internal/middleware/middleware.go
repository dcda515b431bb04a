package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diego00711/inksa-admin-sub000/internal/apperrors"
	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/diego00711/inksa-admin-sub000/internal/response"
	"github.com/jub0bs/cors"
)

// NewCORS builds the CORS middleware for the console origins.
// Credentials (the session cookie) are only allowed when no wildcard origin is configured.
func NewCORS(origins []string) (*cors.Middleware, error) {
	credentialed := true
	for _, o := range origins {
		if o == "*" {
			credentialed = false
		}
	}

	mw, err := cors.NewMiddleware(cors.Config{
		Origins:      origins,
		Credentialed: credentialed,
		Methods: []string{
			http.MethodGet,
			http.MethodPost,
		},
		RequestHeaders: []string{
			"Content-Type",
			"HX-Request",
			"HX-Current-URL",
			"X-Requested-With",
		},
		MaxAgeInSeconds: config.CORSMaxAgeInSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create CORS middleware: %w", err)
	}
	return mw, nil
}

// CORS returns a CORS middleware using the provided pre-built middleware instance.
func CORS(middleware *cors.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middleware.Wrap(next)
	}
}

func SecurityHeaders(environment string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none';")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if environment == "prod" || environment == "staging" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestSizeLimit rejects bodies larger than maxBytes
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				reqLogger := logger.ContextMiddlewareLogger(r.Context())
				reqLogger.Warn("Request size limit exceeded",
					slog.String("component", "RequestSizeLimit"),
					slog.Int64("content_length", r.ContentLength),
					slog.Int64("max_bytes", maxBytes),
				)

				response.RespondWithError(w, r, http.StatusRequestEntityTooLarge, apperrors.ErrCodeRequestTooLarge,
					"Request body exceeds maximum size of "+strconv.FormatInt(maxBytes, 10)+" bytes")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
