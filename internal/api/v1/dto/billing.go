package dto

// RedirectURLResponseDTO carries a Stripe-hosted page to send the browser to.
type RedirectURLResponseDTO struct {
	URL string `json:"url" format:"uri"`
}
