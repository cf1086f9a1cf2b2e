package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"paywall/internal/model"
)

// SubscriptionRepository applies billing-driven changes to an account's
// subscription fields.
type SubscriptionRepository interface {
	// ApplyUpdate writes the non-nil fields of u in a single statement, unless
	// the account has already seen a billing event newer than eventAt. applied
	// is false when the write was skipped for that reason or the account no
	// longer exists.
	ApplyUpdate(ctx context.Context, accountID string, u model.AccountUpdate, eventAt time.Time) (applied bool, err error)
}

type subscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) ApplyUpdate(ctx context.Context, accountID string, u model.AccountUpdate, eventAt time.Time) (bool, error) {
	const q = `
        UPDATE accounts
        SET subscription_status       = COALESCE($2, subscription_status),
            stripe_subscription_id    = COALESCE($3, stripe_subscription_id),
            stripe_price_id           = COALESCE($4, stripe_price_id),
            stripe_current_period_end = COALESCE($5, stripe_current_period_end),
            billing_event_at          = $6,
            updated_at                = NOW()
        WHERE id = $1
          AND (billing_event_at IS NULL OR billing_event_at <= $6)
    `
	var status any
	if u.Status != nil {
		status = string(*u.Status)
	}
	res, err := r.db.ExecContext(ctx, q,
		accountID,
		status,
		nullString(u.StripeSubscriptionID),
		nullString(u.StripePriceID),
		nullTime(u.CurrentPeriodEnd),
		eventAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("apply subscription update for account %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply subscription update for account %s: %w", accountID, err)
	}
	return n > 0, nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
