package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"paywall/internal/auth"
	"paywall/internal/middleware"
	"paywall/internal/model"
	"paywall/internal/service"

	"github.com/rs/zerolog"
)

const nonceCookieName = "oauth_nonce"

// OAuthProvider is the identity provider flow used for sign-in.
type OAuthProvider interface {
	AuthURL(callbackURL string) (authURL, nonce string, err error)
	ParseState(state, nonce string) (string, error)
	Exchange(ctx context.Context, code string) (model.Profile, error)
}

// SessionIssuer creates and revokes login sessions.
type SessionIssuer interface {
	Create(ctx context.Context, accountID string) (token string, expiresAt time.Time, err error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler drives Google sign-in and sign-out.
type AuthHandler struct {
	provider     OAuthProvider
	accounts     service.AccountService
	sessions     SessionIssuer
	secureCookie bool
	logger       zerolog.Logger
}

func NewAuthHandler(provider OAuthProvider, accounts service.AccountService, sessions SessionIssuer, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		provider:     provider,
		accounts:     accounts,
		sessions:     sessions,
		secureCookie: secureCookie,
		logger:       logger.With().Str("handler", "AuthHandler").Logger(),
	}
}

// Login sends the browser to Google. callbackUrl is where the user lands
// after signing in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, nonce, err := h.provider.AuthURL(r.URL.Query().Get("callbackUrl"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build Google auth URL")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    nonce,
		Path:     "/auth/callback",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the Google flow, signs the account in and redirects to
// the callbackUrl carried in the state.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.Warn().Str("provider_error", providerErr).Msg("Google sign-in was not completed")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Sign-in was cancelled"})
		return
	}

	var nonce string
	if c, err := r.Cookie(nonceCookieName); err == nil {
		nonce = c.Value
	}
	callbackURL, err := h.provider.ParseState(q.Get("state"), nonce)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Rejected OAuth state")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid sign-in state"})
		return
	}
	h.clearCookie(w, nonceCookieName, "/auth/callback")

	profile, err := h.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		if errors.Is(err, auth.ErrUnverifiedEmail) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
			return
		}
		h.logger.Error().Err(err).Msg("Google code exchange failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Sign-in failed"})
		return
	}

	account, err := h.accounts.SignIn(r.Context(), profile)
	if err != nil {
		if errors.Is(err, service.ErrMissingEmail) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
			return
		}
		h.logger.Error().Err(err).Str("email", profile.Email).Msg("Failed to upsert account on sign-in")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	token, expiresAt, err := h.sessions.Create(r.Context(), account.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to create session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info().Str("account_id", account.ID).Msg("Account signed in")
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// Logout deletes the session and clears its cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
		if err := h.sessions.Revoke(r.Context(), c.Value); err != nil {
			h.logger.Error().Err(err).Msg("Failed to revoke session")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
	}
	h.clearCookie(w, middleware.SessionCookieName, "/")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
