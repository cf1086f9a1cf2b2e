package handler

import (
	"context"
	"errors"

	"paywall/internal/api/v1/dto"
	"paywall/internal/api/v1/operation"
	"paywall/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

// CheckoutPortalService starts Stripe-hosted billing flows.
type CheckoutPortalService interface {
	CreateCheckoutSession(ctx context.Context, accountID string) (string, error)
	CreatePortalSession(ctx context.Context, accountID string) (string, error)
}

// BillingHandler handles the checkout and customer portal endpoints.
type BillingHandler struct {
	stripeSvc CheckoutPortalService
	logger    zerolog.Logger
}

func NewBillingHandler(stripeSvc CheckoutPortalService, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{stripeSvc: stripeSvc, logger: logger}
}

// Checkout creates a Stripe Checkout session for the configured price
func (h *BillingHandler) Checkout(ctx context.Context, input *operation.CreateCheckoutInput) (*operation.CreateCheckoutOutput, error) {
	accountID, err := getAccountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := h.stripeSvc.CreateCheckoutSession(ctx, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("User not found")
		}
		h.logger.Error().Err(err).Str("account_id", accountID).Msg("failed to create checkout session")
		return nil, huma.Error500InternalServerError("Failed to create checkout session")
	}

	return &operation.CreateCheckoutOutput{Body: dto.RedirectURLResponseDTO{URL: url}}, nil
}

// Portal creates a Stripe Customer Portal session
func (h *BillingHandler) Portal(ctx context.Context, input *operation.CreatePortalInput) (*operation.CreatePortalOutput, error) {
	accountID, err := getAccountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := h.stripeSvc.CreatePortalSession(ctx, accountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return nil, huma.Error404NotFound("User not found")
		case errors.Is(err, service.ErrNoBillingCustomer):
			return nil, huma.Error400BadRequest("No billing account found")
		}
		h.logger.Error().Err(err).Str("account_id", accountID).Msg("failed to create portal session")
		return nil, huma.Error500InternalServerError("Failed to create portal session")
	}

	return &operation.CreatePortalOutput{Body: dto.RedirectURLResponseDTO{URL: url}}, nil
}
