// Package billing turns verified Stripe webhook events into subscription
// state changes.
//
// Events are decoded once, at the webhook boundary, into a closed set of
// variants. Each variant carries only the fields its reducer needs, and every
// variant can answer which Stripe customer it refers to.
package billing

import "time"

// Meta is the envelope information shared by every event.
type Meta struct {
	ID      string
	Type    string
	Created time.Time
}

// Event is one decoded webhook event. The set of implementations is closed.
type Event interface {
	Meta() Meta
	// CustomerID returns the Stripe customer the event refers to. ok is false
	// when the payload has no string "customer" field.
	CustomerID() (id string, ok bool)
	isEvent()
}

type base struct {
	meta     Meta
	customer customerRef
}

func (b base) Meta() Meta { return b.meta }

func (b base) CustomerID() (string, bool) { return b.customer.id, b.customer.ok }

func (base) isEvent() {}

// CheckoutCompleted is checkout.session.completed.
type CheckoutCompleted struct {
	base
	SubscriptionID string
}

// InvoicePaid is invoice.paid. PeriodEnd is the end of the period billed by
// the first line item, when Stripe sent one.
type InvoicePaid struct {
	base
	PeriodEnd *time.Time
}

// InvoicePaymentFailed is invoice.payment_failed.
type InvoicePaymentFailed struct {
	base
}

// SubscriptionUpdated is customer.subscription.updated.
type SubscriptionUpdated struct {
	base
	Status            string
	CancelAtPeriodEnd bool
	PriceID           string
}

// SubscriptionDeleted is customer.subscription.deleted.
type SubscriptionDeleted struct {
	base
}

// Malformed is a handled event type whose object does not have the expected
// shape. The customer is still read so the event can be correlated before it
// is rejected.
type Malformed struct {
	base
	Err error
}

// Unhandled is any event type the app does not react to.
type Unhandled struct {
	base
}
