package billing

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier checks a webhook signature and parses the event it covers.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeVerifier verifies the Stripe-Signature header (HMAC-SHA256 over
// "timestamp.payload") with the endpoint's signing secret.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier returns a verifier for the given whsec_ signing secret.
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

// Verify implements Verifier.
func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}
