package model

import "time"

// Session is a database-backed login session. Only the hash of the token
// handed to the browser is stored.
type Session struct {
	TokenHash string    `db:"token_hash"`
	AccountID string    `db:"account_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity is what the session resolver yields for an authenticated request.
type Identity struct {
	AccountID string
	Email     string
}
