package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paywall/internal/model"
)

// SessionRepository stores login sessions keyed by the hash of their token.
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	// ResolveIdentity returns the identity behind an unexpired session, or
	// (nil, nil) when there is none.
	ResolveIdentity(ctx context.Context, tokenHash string, now time.Time) (*model.Identity, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO sessions (token_hash, account_id, expires_at)
              VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, s.TokenHash, s.AccountID, s.ExpiresAt.UTC()).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("create session for account %s: %w", s.AccountID, err)
	}
	return nil
}

func (r *sessionRepo) ResolveIdentity(ctx context.Context, tokenHash string, now time.Time) (*model.Identity, error) {
	query := `SELECT a.id, a.email
              FROM sessions s
              JOIN accounts a ON a.id = s.account_id
              WHERE s.token_hash = $1 AND s.expires_at > $2`
	var id model.Identity
	err := r.db.QueryRowContext(ctx, query, tokenHash, now.UTC()).Scan(&id.AccountID, &id.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &id, nil
}

func (r *sessionRepo) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
