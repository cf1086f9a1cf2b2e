// Package auth implements Google sign-in for the app.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"paywall/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const DefaultCallbackURL = "/app"

var (
	ErrInvalidState    = errors.New("oauth: invalid or expired state")
	ErrInvalidCode     = errors.New("oauth: invalid authorization code")
	ErrMissingIDToken  = errors.New("oauth: token response has no id_token")
	ErrUnverifiedEmail = errors.New("oauth: google account email is not verified")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
	StateTTL     time.Duration
}

type stateClaims struct {
	CallbackURL string `json:"cb"`
	Nonce       string `json:"nonce"`
	jwt.RegisteredClaims
}

// GoogleProvider runs the authorization code flow against Google. The state
// parameter is a short-lived HS256 token carrying the post-login destination
// and a nonce that must match the browser's nonce cookie.
type GoogleProvider struct {
	oauth       *oauth2.Config
	stateSecret []byte
	stateTTL    time.Duration
	validate    func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
	now         func() time.Time
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		stateSecret: []byte(cfg.StateSecret),
		stateTTL:    ttl,
		validate:    idtoken.Validate,
		now:         time.Now,
	}
}

// AuthURL returns the Google consent URL and the nonce the caller must store
// in a cookie for the callback.
func (p *GoogleProvider) AuthURL(callbackURL string) (authURL, nonce string, err error) {
	nonce, err = randomNonce()
	if err != nil {
		return "", "", err
	}
	now := p.now()
	claims := stateClaims{
		CallbackURL: SafeCallbackURL(callbackURL),
		Nonce:       nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.stateSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign oauth state: %w", err)
	}
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nonce, nil
}

// ParseState verifies the state against the nonce cookie and returns the
// destination to send the user to after sign-in.
func (p *GoogleProvider) ParseState(state, nonce string) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return p.stateSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidState, err)
	}
	if nonce == "" || claims.Nonce != nonce {
		return "", ErrInvalidState
	}
	return SafeCallbackURL(claims.CallbackURL), nil
}

// Exchange trades the authorization code for tokens and returns the profile
// from the validated ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (model.Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return model.Profile{}, errors.Join(ErrInvalidCode, err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return model.Profile{}, ErrMissingIDToken
	}

	payload, err := p.validate(ctx, raw, p.oauth.ClientID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("validate id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return model.Profile{}, ErrUnverifiedEmail
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return model.Profile{Email: email, Name: name, Image: picture}, nil
}

// SafeCallbackURL only lets through same-origin absolute paths.
func SafeCallbackURL(u string) string {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return DefaultCallbackURL
	}
	return u
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
