package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paywall/internal/auth"
	"paywall/internal/middleware"
	"paywall/internal/model"
	"paywall/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	lastCallback string
	profile      model.Profile
	exchangeErr  error
}

func (p *fakeProvider) AuthURL(callbackURL string) (string, string, error) {
	p.lastCallback = callbackURL
	return "https://accounts.google.com/o/oauth2/auth?state=s", "nonce-1", nil
}

func (p *fakeProvider) ParseState(state, nonce string) (string, error) {
	if state != "s" || nonce != "nonce-1" {
		return "", auth.ErrInvalidState
	}
	return "/app/settings", nil
}

func (p *fakeProvider) Exchange(context.Context, string) (model.Profile, error) {
	return p.profile, p.exchangeErr
}

type fakeSessions struct {
	created []string
	revoked []string
}

func (s *fakeSessions) Create(_ context.Context, accountID string) (string, time.Time, error) {
	s.created = append(s.created, accountID)
	return "token-1", time.Now().Add(time.Hour), nil
}

func (s *fakeSessions) Revoke(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return nil
}

func newAuthHandler(p *fakeProvider, sessions *fakeSessions) *AuthHandler {
	accounts := &fakeAccountService{signIn: func(p model.Profile) (*model.Account, error) {
		if p.Email == "" {
			return nil, service.ErrMissingEmail
		}
		return &model.Account{ID: "acc-1", Email: p.Email}, nil
	}}
	return NewAuthHandler(p, accounts, sessions, true, zerolog.Nop())
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	p := &fakeProvider{}
	h := newAuthHandler(p, &fakeSessions{})

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/login?callbackUrl=%2Fapp%2Fsettings", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?state=s", rec.Header().Get("Location"))
	assert.Equal(t, "/app/settings", p.lastCallback)

	nonce := findCookie(rec, nonceCookieName)
	require.NotNil(t, nonce)
	assert.Equal(t, "nonce-1", nonce.Value)
	assert.True(t, nonce.HttpOnly)
	assert.True(t, nonce.Secure)
}

func callbackRequest(withNonce bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback/google?state=s&code=c", nil)
	if withNonce {
		req.AddCookie(&http.Cookie{Name: nonceCookieName, Value: "nonce-1"})
	}
	return req
}

func TestCallbackSignsIn(t *testing.T) {
	sessions := &fakeSessions{}
	h := newAuthHandler(&fakeProvider{profile: model.Profile{Email: "ada@example.com", Name: "Ada"}}, sessions)

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest(true))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/app/settings", rec.Header().Get("Location"))
	assert.Equal(t, []string{"acc-1"}, sessions.created)

	session := findCookie(rec, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "token-1", session.Value)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
}

func TestCallbackRejects(t *testing.T) {
	t.Run("missing nonce cookie", func(t *testing.T) {
		sessions := &fakeSessions{}
		h := newAuthHandler(&fakeProvider{profile: model.Profile{Email: "ada@example.com"}}, sessions)
		rec := httptest.NewRecorder()
		h.Callback(rec, callbackRequest(false))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, sessions.created)
	})

	t.Run("no email", func(t *testing.T) {
		sessions := &fakeSessions{}
		h := newAuthHandler(&fakeProvider{profile: model.Profile{Name: "No Email"}}, sessions)
		rec := httptest.NewRecorder()
		h.Callback(rec, callbackRequest(true))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, sessions.created)
	})

	t.Run("unverified email", func(t *testing.T) {
		h := newAuthHandler(&fakeProvider{exchangeErr: auth.ErrUnverifiedEmail}, &fakeSessions{})
		rec := httptest.NewRecorder()
		h.Callback(rec, callbackRequest(true))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := newAuthHandler(&fakeProvider{exchangeErr: errors.New("invalid_grant")}, &fakeSessions{})
		rec := httptest.NewRecorder()
		h.Callback(rec, callbackRequest(true))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("provider error", func(t *testing.T) {
		h := newAuthHandler(&fakeProvider{}, &fakeSessions{})
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback/google?error=access_denied", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessions{}
	h := newAuthHandler(&fakeProvider{}, sessions)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "token-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"token-1"}, sessions.revoked)
	cleared := findCookie(rec, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}
