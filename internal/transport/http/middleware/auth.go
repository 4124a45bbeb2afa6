package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"microblog/internal/httputil"
	"microblog/internal/metrics"
	"microblog/internal/model"
)

// APIKeyHeader carries the caller's opaque api key.
const APIKeyHeader = "api-key"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
	userKey   contextKey = "user"
)

// UserFinder resolves an api key to its owner.
type UserFinder interface {
	FindByKey(ctx context.Context, apiKey string) (*model.User, error)
}

// APIKeyAuth rejects requests without a valid api-key header and stores the
// authenticated user in the request context.
func APIKeyAuth(users UserFinder, m *metrics.Metrics, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				m.AuthFailed("missing")
				httputil.WriteUnauthorized(w, "missing api-key header")
				return
			}

			user, err := users.FindByKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					m.AuthFailed("invalid")
					httputil.WriteUnauthorized(w, "invalid api-key")
					return
				}
				httputil.WriteServiceError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserFromContext returns the authenticated user.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}
