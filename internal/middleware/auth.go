package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reuniteapp/lostfound/internal/identity"
)

const callerKey contextKey = "caller_id"

// Auth resolves the caller's bearer token and stores the user ID in the
// request context. Listing posts and the health endpoint stay public.
func Auth(resolver identity.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && (r.URL.Path == "/health" || r.URL.Path == "/api/posts") {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, r)
				return
			}
			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, identity.ErrUnknownToken) {
					logger.Error("token resolution failed", "error", err, "request_id", GetRequestID(r.Context()))
				}
				writeUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), user.ID)))
		})
	}
}

func WithCaller(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, callerKey, id)
}

// CallerFrom returns the authenticated user's ID, if any.
func CallerFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey).(uuid.UUID)
	return id, ok
}

func extractToken(r *http.Request) string {
	if s := r.Header.Get("X-API-Key"); s != "" {
		return s
	}
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "missing or invalid credentials",
	})
}
