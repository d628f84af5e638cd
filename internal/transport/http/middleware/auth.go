package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
	jwtinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/jwt"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	UserKey   contextKey = "user"
)

// userCacheTTL bounds how long a revoked or modified user record can
// still be served from cache.
const userCacheTTL = 5 * time.Minute

// UserCache holds JSON-encoded user records keyed by "user:<id>".
type UserCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// UserLoader resolves a user id to its record.
type UserLoader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Auth validates the Bearer JWT, resolves the user (cache first) and
// injects both claims and user into the request context.
func Auth(provider *jwtinfra.Provider, users UserLoader, cache UserCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := provider.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := loadUser(r.Context(), users, cache, claims.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			if !user.Enable {
				writeJSONError(w, http.StatusForbidden, "account disabled")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadUser(ctx context.Context, users UserLoader, cache UserCache, userID string) (*domain.User, error) {
	key := "user:" + userID

	if raw, found, err := cache.Get(ctx, key); err == nil && found {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil && u.UserID != "" {
			return &u, nil
		}
	}

	user, err := users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(user); err == nil {
		// Best effort: a cache write failure just means a repo hit next time.
		_ = cache.Set(ctx, key, string(raw), userCacheTTL)
	}
	return user, nil
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserKey).(*domain.User)
	return u, ok
}
