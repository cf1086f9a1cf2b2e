package dto

import "time"

// AccountResponseDTO is the session view of the signed-in account.
type AccountResponseDTO struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               *string    `json:"name,omitempty"`
	Image              *string    `json:"image,omitempty"`
	SubscriptionStatus string     `json:"subscription_status" enum:"INACTIVE,ACTIVE,PAST_DUE,CANCELED,EXPIRED"`
	StripeCustomerID   *string    `json:"stripe_customer_id,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	HasAccess          bool       `json:"has_access"`
	IsPastDue          bool       `json:"is_past_due"`
}
