package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paywall/internal/model"
)

const accountColumns = `id, email, name, image, stripe_customer_id, subscription_status,
       stripe_subscription_id, stripe_price_id, stripe_current_period_end,
       billing_event_at, created_at, updated_at`

// AccountRepository reads and writes the accounts table. Lookups return
// (nil, nil) when no row matches.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error)
	// UpsertByEmail creates an INACTIVE account for a new email, or refreshes
	// the profile of an existing one.
	UpsertByEmail(ctx context.Context, p model.Profile) (*model.Account, error)
	// SetStripeCustomerID stores the customer id only if none is set yet and
	// returns whichever id the account ends up with.
	SetStripeCustomerID(ctx context.Context, accountID, customerID string) (string, error)
}

type accountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *accountRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE stripe_customer_id = $1`
	return r.findOne(ctx, query, customerID)
}

func (r *accountRepo) UpsertByEmail(ctx context.Context, p model.Profile) (*model.Account, error) {
	query := `INSERT INTO accounts (email, name, image, subscription_status)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (email) DO UPDATE
              SET name = COALESCE(EXCLUDED.name, accounts.name),
                  image = COALESCE(EXCLUDED.image, accounts.image),
                  updated_at = NOW()
              RETURNING ` + accountColumns
	row := r.db.QueryRowContext(ctx, query, p.Email, nullIfEmpty(p.Name), nullIfEmpty(p.Image), string(model.StatusInactive))
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("upsert account %s: %w", p.Email, err)
	}
	return a, nil
}

func (r *accountRepo) SetStripeCustomerID(ctx context.Context, accountID, customerID string) (string, error) {
	query := `UPDATE accounts SET stripe_customer_id = $2, updated_at = NOW()
              WHERE id = $1 AND stripe_customer_id IS NULL
              RETURNING stripe_customer_id`
	var stored string
	err := r.db.QueryRowContext(ctx, query, accountID, customerID).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("set stripe customer for account %s: %w", accountID, err)
	}

	// Someone else set it first, or the account is gone.
	var existing sql.NullString
	err = r.db.QueryRowContext(ctx, `SELECT stripe_customer_id FROM accounts WHERE id = $1`, accountID).Scan(&existing)
	if err != nil {
		return "", fmt.Errorf("read stripe customer for account %s: %w", accountID, err)
	}
	if !existing.Valid {
		return "", fmt.Errorf("stripe customer for account %s not stored", accountID)
	}
	return existing.String, nil
}

func (r *accountRepo) findOne(ctx context.Context, query string, arg any) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&a.Image,
		&a.StripeCustomerID,
		&a.SubscriptionStatus,
		&a.StripeSubscriptionID,
		&a.StripePriceID,
		&a.CurrentPeriodEnd,
		&a.BillingEventAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !a.SubscriptionStatus.Valid() {
		return nil, fmt.Errorf("account %s has unknown subscription status %q", a.ID, a.SubscriptionStatus)
	}
	return &a, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
