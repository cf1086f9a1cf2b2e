package model

import "time"

// SubscriptionStatus is the billing state of an account.
type SubscriptionStatus string

const (
	StatusInactive SubscriptionStatus = "INACTIVE"
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
	StatusCanceled SubscriptionStatus = "CANCELED"
	StatusExpired  SubscriptionStatus = "EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// Account represents a signed-up user together with the projection of their
// Stripe subscription that the app cares about.
type Account struct {
	ID                   string             `db:"id" json:"id"`
	Email                string             `db:"email" json:"email"`
	Name                 *string            `db:"name" json:"name,omitempty"`
	Image                *string            `db:"image" json:"image,omitempty"`
	StripeCustomerID     *string            `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	SubscriptionStatus   SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	StripeSubscriptionID *string            `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	StripePriceID        *string            `db:"stripe_price_id" json:"stripe_price_id,omitempty"`
	CurrentPeriodEnd     *time.Time         `db:"stripe_current_period_end" json:"stripe_current_period_end,omitempty"`
	BillingEventAt       *time.Time         `db:"billing_event_at" json:"-"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// AccountUpdate is a partial write of the subscription fields. Nil fields are
// left untouched.
type AccountUpdate struct {
	Status               *SubscriptionStatus
	StripeSubscriptionID *string
	StripePriceID        *string
	CurrentPeriodEnd     *time.Time
}

// Profile is the identity-provider data captured on sign-in.
type Profile struct {
	Email string
	Name  string
	Image string
}
