package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ranjithr99/SQL-AGENT/internal/observability"
)

type contextKey string

const identityKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware authenticates requests with an API key taken from the X-API-Key
// header or an Authorization bearer token. The resolved identity is attached
// to the request context so handlers can attribute questions to a client.
func Middleware(logger *slog.Logger, validator APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := requestAPIKey(r)
			if !ok {
				denied(w, r, "API key required")
				return
			}

			identity, ok := validator.Validate(r.Context(), key)
			if !ok {
				if logger != nil {
					logger.WarnContext(r.Context(), "rejected API key",
						slog.String("path", r.URL.Path),
						slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
					)
				}
				denied(w, r, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func requestAPIKey(r *http.Request) (string, bool) {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	if token, found := strings.CutPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer "); found {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	return "", false
}

type unauthorizedBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	TraceID   string `json:"trace_id"`
}

func denied(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		ErrorCode: "UNAUTHORIZED",
		Message:   message,
		Retryable: false,
		TraceID:   observability.TraceIDFromContext(r.Context()),
	})
}
