package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paywall/internal/model"
)

func TestSessionCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepo(db)

	expires := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs("hash", "acc-1", expires).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	s := &model.Session{TokenHash: "hash", AccountID: "acc-1", ExpiresAt: expires}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.True(t, created.Equal(s.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionResolveIdentity(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("live session", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewSessionRepo(db)

		mock.ExpectQuery(`FROM sessions s JOIN accounts a`).
			WithArgs("hash", now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("acc-1", "ada@example.com"))

		id, err := repo.ResolveIdentity(context.Background(), "hash", now)
		require.NoError(t, err)
		assert.Equal(t, &model.Identity{AccountID: "acc-1", Email: "ada@example.com"}, id)
	})

	t.Run("unknown or expired", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewSessionRepo(db)

		mock.ExpectQuery(`FROM sessions`).WillReturnError(sql.ErrNoRows)

		id, err := repo.ResolveIdentity(context.Background(), "hash", now)
		assert.NoError(t, err)
		assert.Nil(t, id)
	})
}

func TestSessionDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepo(db)

	mock.ExpectExec(`DELETE FROM sessions WHERE token_hash = \$1`).
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepo(db)

	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
