package operation

import "paywall/internal/api/v1/dto"

type CreateCheckoutInput struct {
	// No input needed - the configured price is used
}

type CreateCheckoutOutput struct {
	Body dto.RedirectURLResponseDTO `json:"body"`
}

type CreatePortalInput struct{}

type CreatePortalOutput struct {
	Body dto.RedirectURLResponseDTO `json:"body"`
}
