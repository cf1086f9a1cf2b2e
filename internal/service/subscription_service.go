package service

import (
	"context"

	"paywall/internal/billing"
	"paywall/internal/metrics"
	"paywall/internal/model"
	"paywall/internal/pubsub"
	"paywall/internal/repository"

	"github.com/rs/zerolog"
)

// ApplyOutcome says what happened to a decoded billing event.
type ApplyOutcome string

const (
	OutcomeApplied        ApplyOutcome = "applied"
	OutcomeStale          ApplyOutcome = "stale"
	OutcomeIgnored        ApplyOutcome = "ignored"
	OutcomeNoCustomer     ApplyOutcome = "no_customer"
	OutcomeUnknownAccount ApplyOutcome = "unknown_account"
	OutcomeBadPayload     ApplyOutcome = "bad_payload"
)

// SubscriptionService applies billing events to the account they refer to.
type SubscriptionService interface {
	// Apply returns an error only when the store failed. OutcomeBadPayload
	// means a correlated account received an event it cannot read; every
	// other outcome is an acknowledged delivery.
	Apply(ctx context.Context, e billing.Event) (ApplyOutcome, error)
}

type subscriptionService struct {
	accountRepo repository.AccountRepository
	repo        repository.SubscriptionRepository
	notifier    pubsub.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(accountRepo repository.AccountRepository, repo repository.SubscriptionRepository, notifier pubsub.Notifier, m *metrics.Metrics, logger zerolog.Logger) SubscriptionService {
	if notifier == nil {
		notifier = pubsub.NopNotifier{}
	}
	return &subscriptionService{
		accountRepo: accountRepo,
		repo:        repo,
		notifier:    notifier,
		metrics:     m,
		logger:      logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Apply(ctx context.Context, e billing.Event) (ApplyOutcome, error) {
	meta := e.Meta()
	lg := s.logger.With().Str("event_id", meta.ID).Str("event_type", meta.Type).Logger()

	customerID, ok := e.CustomerID()
	if !ok {
		lg.Info().Msg("Billing event has no customer, skipping")
		return OutcomeNoCustomer, nil
	}
	lg = lg.With().Str("stripe_customer_id", customerID).Logger()

	account, err := s.accountRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to look up account by Stripe customer")
		return "", err
	}
	if account == nil {
		lg.Warn().Msg("No account for Stripe customer, skipping")
		return OutcomeUnknownAccount, nil
	}
	lg = lg.With().Str("account_id", account.ID).Logger()

	if m, ok := e.(billing.Malformed); ok {
		lg.Error().Err(m.Err).Msg("Billing event payload does not match its event type")
		return OutcomeBadPayload, nil
	}

	update, ok := billing.Reduce(e)
	if !ok {
		lg.Info().Msg("Billing event does not change subscription state")
		return OutcomeIgnored, nil
	}

	applied, err := s.repo.ApplyUpdate(ctx, account.ID, update, meta.Created)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to apply subscription update")
		return "", err
	}
	if !applied {
		lg.Warn().Time("event_created", meta.Created).Msg("Account already reflects a newer billing event, skipping")
		return OutcomeStale, nil
	}

	status := account.SubscriptionStatus
	if update.Status != nil {
		status = *update.Status
	}
	lg.Info().Str("status", string(status)).Msg("Subscription state updated")
	s.metrics.ObserveStatusChange(string(status))

	change := model.StatusChange{
		AccountID:  account.ID,
		EventID:    meta.ID,
		EventType:  meta.Type,
		Status:     status,
		OccurredAt: meta.Created,
	}
	if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
		lg.Error().Err(err).Msg("Failed to publish status change")
	}
	return OutcomeApplied, nil
}
