// Package access decides whether a subscription state grants entry to the
// paid area of the app.
package access

import (
	"time"

	"paywall/internal/model"
)

// HasAccess reports whether an account with the given subscription state may
// use the app at instant now.
//
//   - ACTIVE: yes
//   - PAST_DUE: yes, a failed payment does not revoke access right away
//   - CANCELED: only strictly before currentPeriodEnd
//   - INACTIVE, EXPIRED, nil or unknown: no
func HasAccess(status *model.SubscriptionStatus, currentPeriodEnd *time.Time, now time.Time) bool {
	if status == nil {
		return false
	}

	switch *status {
	case model.StatusActive, model.StatusPastDue:
		return true
	case model.StatusCanceled:
		if currentPeriodEnd == nil {
			return false
		}
		return now.Before(*currentPeriodEnd)
	default:
		return false
	}
}

// ForAccount applies HasAccess to a stored account. A nil account has no access.
func ForAccount(a *model.Account, now time.Time) bool {
	if a == nil {
		return false
	}
	status := a.SubscriptionStatus
	return HasAccess(&status, a.CurrentPeriodEnd, now)
}

// IsPastDue reports whether the last payment failed and the user should be
// asked to update their payment method.
func IsPastDue(status model.SubscriptionStatus) bool {
	return status == model.StatusPastDue
}
