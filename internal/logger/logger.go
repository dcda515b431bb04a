// Package logger configures slog for the console server and the CLI, and records one log entry
// per console request.
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

type contextKey struct {
	name string
}

var (
	requestAttrsKey  = contextKey{"request_attrs"}
	requestLoggerKey = contextKey{"request_logger"}
)

// ParseLogLevel maps LOG_LEVEL to a slog level; unknown values mean info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger returns the process logger: colourised text on stderr in dev, so that CLI output on
// stdout stays clean, and JSON on stdout everywhere else.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	if environment == "dev" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ContextWithLogAttrs adds attributes to the console request's log entry, e.g. the operator's
// account id or the number of exported rows. Outside RequestLogging it is a no-op.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if acc, ok := ctx.Value(requestAttrsKey).(*[]slog.Attr); ok {
		*acc = append(*acc, attrs...)
		return ctx
	}
	slog.Warn("log attributes dropped: context does not come from RequestLogging")
	return ctx
}

func ContextLogAttrs(ctx context.Context) []slog.Attr {
	if acc, ok := ctx.Value(requestAttrsKey).(*[]slog.Attr); ok {
		return *acc
	}
	return nil
}

// ContextMiddlewareLogger returns the logger tagged with the console request id, for messages
// written while the request is still being handled
func ContextMiddlewareLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// requestComponent groups console routes in the logs: JSON endpoints, CSV downloads and the rest
func requestComponent(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/"):
		return "api"
	case strings.HasPrefix(path, "/export/"):
		return "export"
	default:
		return "console"
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// RequestLogging writes one entry per console request once it completes. Liveness probes are not
// logged.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			acc := &[]slog.Attr{}
			ctx := context.WithValue(r.Context(), requestAttrsKey, acc)
			ctx = context.WithValue(ctx, requestLoggerKey, logger.With(
				slog.String("type", "middleware"),
				slog.String("request_id", requestID),
			))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := make([]slog.Attr, 0, 9+len(*acc))
			attrs = append(attrs,
				slog.String("type", "HTTP"),
				slog.Int("status", ww.Status()),
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("component", requestComponent(r.URL.Path)),
			)
			attrs = append(attrs, *acc...)
			attrs = append(attrs,
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
			)

			logger.LogAttrs(r.Context(), levelForStatus(ww.Status()), "console request", attrs...)
		})
	}
}
