// Package auth resolves the account every API request acts as. There is no
// login: the service runs as the single account named by admin_email, which
// is created on first use.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/db8labs/db8-agent/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// Middleware provides HTTP middleware that attaches the current account.
type Middleware struct {
	users          store.UserStoreIface
	adminEmail     string
	defaultCredits int
}

// NewMiddleware creates a new auth Middleware.
func NewMiddleware(us store.UserStoreIface, adminEmail string, defaultCredits int) *Middleware {
	return &Middleware{users: us, adminEmail: adminEmail, defaultCredits: defaultCredits}
}

// RequireAccount loads (or creates) the configured account and sets the
// *store.User on the request context.
func (m *Middleware) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.users.GetOrCreate(r.Context(), m.adminEmail, m.defaultCredits)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("email", m.adminEmail).Msg("resolve account")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "account unavailable", "code": "INTERNAL_ERROR"})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		l := zerolog.Ctx(ctx).With().Str("user_id", user.ID).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
	})
}

// UserFromContext retrieves the current account from the context.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(UserContextKey).(*store.User)
	return u
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}
