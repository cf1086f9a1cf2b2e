package middleware

import (
	"context"
	"net/http"

	"paywall/internal/model"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	IdentityContextKey = contextKey("identity")
	AccountContextKey  = contextKey("account")
)

// SessionCookieName is the cookie holding the opaque session token.
const SessionCookieName = "session_token"

// SessionResolver maps a session token to the signed-in identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Identity, error)
}

// SessionMiddleware attaches the identity of a valid session cookie to the
// request context. Requests without a valid session pass through anonymous.
func SessionMiddleware(sessions SessionResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to resolve session")
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*model.Identity)
	return identity
}

// AccountFromContext returns the account loaded by the route guard.
func AccountFromContext(ctx context.Context) *model.Account {
	account, _ := ctx.Value(AccountContextKey).(*model.Account)
	return account
}
