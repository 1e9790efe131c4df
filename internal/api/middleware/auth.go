package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/outreach/internal/domain"
)

type contextKey string

const (
	userContextKey contextKey = "user"
	identityKey    contextKey = "identity"
)

// identity lets outer middleware see the user resolved further down the chain.
type identity struct {
	user *domain.User
}

func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

// WithUser stores the caller identity on ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	if id, ok := ctx.Value(identityKey).(*identity); ok {
		id.user = u
	}
	return context.WithValue(ctx, userContextKey, u)
}

// UserLookup resolves the owner of an API key hash.
type UserLookup interface {
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.User, error)
}

func APIKeyAuth(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			user, err := users.GetByAPIKeyHash(r.Context(), HashAPIKey(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// HashAPIKey is the form API keys are stored in.
func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
