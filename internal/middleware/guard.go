package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paywall/internal/access"
	"paywall/internal/metrics"
	"paywall/internal/model"

	"github.com/rs/zerolog"
)

// ProtectedPrefix is the area only paying accounts may enter.
const ProtectedPrefix = "/app"

// AccountLookup loads an account by email; (nil, nil) means none exists.
type AccountLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

// Decision is the outcome of the route guard. When Allow is false the request
// is redirected to Target.
type Decision struct {
	Allow  bool
	Target string
	// Account is set when the decision required loading it.
	Account *model.Account
}

// IsProtected reports whether path is /app or lies under /app/.
func IsProtected(path string) bool {
	return path == ProtectedPrefix || strings.HasPrefix(path, ProtectedPrefix+"/")
}

// Decide evaluates access for a request. The account is read on every call so
// a billing change is visible on the very next request.
func Decide(ctx context.Context, path string, identity *model.Identity, lookup AccountLookup, now time.Time) (Decision, error) {
	if !IsProtected(path) {
		return Decision{Allow: true}, nil
	}
	if identity == nil || identity.Email == "" {
		return Decision{Target: "/login?callbackUrl=" + url.QueryEscape(path)}, nil
	}

	account, err := lookup.FindByEmail(ctx, identity.Email)
	if err != nil {
		return Decision{}, err
	}
	if account == nil || !access.ForAccount(account, now) {
		return Decision{Target: "/subscribe", Account: account}, nil
	}
	return Decision{Allow: true, Account: account}, nil
}

// RouteGuard enforces Decide with temporary redirects. A failed account
// lookup is answered with 500 and never lets the request through.
func RouteGuard(lookup AccountLookup, m *metrics.Metrics, logger zerolog.Logger) func(http.Handler) http.Handler {
	return RouteGuardWithClock(lookup, m, time.Now, logger)
}

func RouteGuardWithClock(lookup AccountLookup, m *metrics.Metrics, now func() time.Time, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			identity := IdentityFromContext(r.Context())
			d, err := Decide(r.Context(), r.URL.Path, identity, lookup, now())
			if err != nil {
				logger.Error().Err(err).Str("path", r.URL.Path).Str("email", identity.Email).Msg("Route guard account lookup failed")
				m.ObserveGuard(metrics.GuardError)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !d.Allow {
				if strings.HasPrefix(d.Target, "/login") {
					m.ObserveGuard(metrics.GuardLogin)
				} else {
					m.ObserveGuard(metrics.GuardSubscribe)
				}
				http.Redirect(w, r, d.Target, http.StatusTemporaryRedirect)
				return
			}

			m.ObserveGuard(metrics.GuardAllow)
			ctx := context.WithValue(r.Context(), AccountContextKey, d.Account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
