package service

import (
	"context"
	"errors"
	"fmt"

	"paywall/internal/model"
	"paywall/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
)

var ErrNoBillingCustomer = errors.New("account has no billing customer")

// CheckoutRequest describes a hosted subscription checkout.
type CheckoutRequest struct {
	CustomerID string
	AccountID  string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// BillingGateway is the part of the Stripe API the app calls outbound.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, email, accountID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type stripeGateway struct{}

// NewStripeGateway sets the global Stripe key and returns a gateway backed by
// the Stripe API.
func NewStripeGateway(secretKey string) BillingGateway {
	stripe.Key = secretKey
	return stripeGateway{}
}

func (stripeGateway) CreateCustomer(ctx context.Context, email, accountID string) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"account_id": accountID},
	}
	params.Context = ctx
	cust, err := customerpkg.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

func (stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(req.CustomerID),
		ClientReferenceID: stripe.String(req.AccountID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)}},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		Metadata:          map[string]string{"account_id": req.AccountID},
	}
	params.Context = ctx
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (stripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := billingsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// StripeService starts the hosted checkout and customer portal flows.
type StripeService struct {
	accountRepo repository.AccountRepository
	gateway     BillingGateway
	priceID     string
	appURL      string
	logger      zerolog.Logger
}

// NewStripeService returns the service with a scoped logger. appURL is the
// public base URL used to build return links.
func NewStripeService(accountRepo repository.AccountRepository, gateway BillingGateway, priceID, appURL string, logger zerolog.Logger) *StripeService {
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{accountRepo: accountRepo, gateway: gateway, priceID: priceID, appURL: appURL, logger: lg}
}

// GetOrCreateCustomer returns the account's Stripe customer, creating it on
// first use. Concurrent callers may both create a customer; only the first
// stored id is kept and returned to both.
func (s *StripeService) GetOrCreateCustomer(ctx context.Context, account *model.Account) (string, error) {
	if account.StripeCustomerID != nil && *account.StripeCustomerID != "" {
		return *account.StripeCustomerID, nil
	}

	created, err := s.gateway.CreateCustomer(ctx, account.Email, account.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to create Stripe customer")
		return "", err
	}
	stored, err := s.accountRepo.SetStripeCustomerID(ctx, account.ID, created)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Str("stripe_customer_id", created).Msg("Failed to store Stripe customer id")
		return "", err
	}
	if stored != created {
		s.logger.Warn().Str("account_id", account.ID).Str("stripe_customer_id", stored).Str("orphan_customer_id", created).Msg("Stripe customer already set by a concurrent request")
	}
	return stored, nil
}

// CreateCheckoutSession returns the URL of a hosted checkout for the
// configured price.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, accountID string) (string, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	customerID, err := s.GetOrCreateCustomer(ctx, account)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		AccountID:  account.ID,
		PriceID:    s.priceID,
		SuccessURL: s.appURL + "/app?checkout=success",
		CancelURL:  s.appURL + "/subscribe?checkout=canceled",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Str("stripe_customer_id", customerID).Msg("Failed to create Stripe checkout session")
		return "", err
	}
	return url, nil
}

// CreatePortalSession returns the URL of the Stripe customer portal.
func (s *StripeService) CreatePortalSession(ctx context.Context, accountID string) (string, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		return "", ErrNoBillingCustomer
	}

	url, err := s.gateway.CreatePortalSession(ctx, *account.StripeCustomerID, s.appURL+"/app/settings")
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Str("stripe_customer_id", *account.StripeCustomerID).Msg("Failed to create Stripe billing portal session")
		return "", err
	}
	return url, nil
}

func (s *StripeService) findAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to fetch account")
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
