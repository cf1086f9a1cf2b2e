package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"paywall/internal/model"
	"paywall/internal/repository"

	"github.com/rs/zerolog"
)

const sessionTokenBytes = 32

// SessionService issues and resolves opaque session tokens. The browser holds
// the token; the database only holds its SHA-256.
type SessionService interface {
	Create(ctx context.Context, accountID string) (token string, expiresAt time.Time, err error)
	// Resolve returns nil without error for unknown or expired tokens.
	Resolve(ctx context.Context, token string) (*model.Identity, error)
	Revoke(ctx context.Context, token string) error
	SweepExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	repo   repository.SessionRepository
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewSessionService(repo repository.SessionRepository, ttl time.Duration, logger zerolog.Logger) SessionService {
	return &sessionService{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("service", "SessionService").Logger(),
	}
}

func (s *sessionService) Create(ctx context.Context, accountID string) (string, time.Time, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := s.now().Add(s.ttl).UTC()

	sess := &model.Session{TokenHash: hashToken(token), AccountID: accountID, ExpiresAt: expiresAt}
	if err := s.repo.Create(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to store session")
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}
	return s.repo.ResolveIdentity(ctx, hashToken(token), s.now())
}

func (s *sessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.Delete(ctx, hashToken(token))
}

func (s *sessionService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete expired sessions")
		return 0, err
	}
	return n, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
