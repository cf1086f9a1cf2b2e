package billing

import (
	"paywall/internal/model"
)

// stripeStatusPastDue is Stripe's own subscription status string.
const stripeStatusPastDue = "past_due"

// Reduce computes the account mutation for an event. ok is false when the
// event leaves the account untouched.
//
// Every mutation is a plain assignment derived from the payload, so applying
// the same event twice gives the same state as applying it once.
func Reduce(e Event) (update model.AccountUpdate, ok bool) {
	switch ev := e.(type) {
	case CheckoutCompleted:
		update.Status = statusPtr(model.StatusActive)
		if ev.SubscriptionID != "" {
			id := ev.SubscriptionID
			update.StripeSubscriptionID = &id
		}
		return update, true

	case InvoicePaid:
		if ev.PeriodEnd == nil {
			return update, false
		}
		end := *ev.PeriodEnd
		update.Status = statusPtr(model.StatusActive)
		update.CurrentPeriodEnd = &end
		return update, true

	case InvoicePaymentFailed:
		update.Status = statusPtr(model.StatusPastDue)
		return update, true

	case SubscriptionUpdated:
		// Cancellation wins over past-due, past-due over active.
		switch {
		case ev.CancelAtPeriodEnd:
			update.Status = statusPtr(model.StatusCanceled)
		case ev.Status == stripeStatusPastDue:
			update.Status = statusPtr(model.StatusPastDue)
		default:
			update.Status = statusPtr(model.StatusActive)
		}
		if ev.PriceID != "" {
			price := ev.PriceID
			update.StripePriceID = &price
		}
		return update, true

	case SubscriptionDeleted:
		update.Status = statusPtr(model.StatusExpired)
		return update, true

	default:
		return update, false
	}
}

func statusPtr(s model.SubscriptionStatus) *model.SubscriptionStatus {
	return &s
}
