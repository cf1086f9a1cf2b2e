package handler

import (
	"context"
	"errors"
	"time"

	"paywall/internal/access"
	"paywall/internal/api/v1/dto"
	"paywall/internal/api/v1/operation"
	"paywall/internal/middleware"
	"paywall/internal/model"
	"paywall/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

// AccountHandler implements Huma-based account operations
type AccountHandler struct {
	accountService service.AccountService
	now            func() time.Time
	logger         zerolog.Logger
}

func NewAccountHandler(accountService service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		now:            time.Now,
		logger:         logger,
	}
}

// Helper to extract the account ID from context (injected by the session middleware)
func getAccountIDFromContext(ctx context.Context) (string, error) {
	identity := middleware.IdentityFromContext(ctx)
	if identity == nil || identity.AccountID == "" {
		return "", huma.Error401Unauthorized("Unauthorized")
	}
	return identity.AccountID, nil
}

// GetMe returns the signed-in account with its access flags
func (h *AccountHandler) GetMe(ctx context.Context, input *operation.GetMeInput) (*operation.GetMeOutput, error) {
	accountID, err := getAccountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	account, err := h.accountService.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return nil, huma.Error404NotFound("User not found")
		}
		h.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to load account")
		return nil, huma.Error500InternalServerError("Internal server error")
	}

	return &operation.GetMeOutput{Body: toAccountDTO(account, h.now())}, nil
}

func toAccountDTO(a *model.Account, now time.Time) dto.AccountResponseDTO {
	return dto.AccountResponseDTO{
		ID:                 a.ID,
		Email:              a.Email,
		Name:               a.Name,
		Image:              a.Image,
		SubscriptionStatus: string(a.SubscriptionStatus),
		StripeCustomerID:   a.StripeCustomerID,
		CurrentPeriodEnd:   a.CurrentPeriodEnd,
		HasAccess:          access.ForAccount(a, now),
		IsPastDue:          access.IsPastDue(a.SubscriptionStatus),
	}
}
