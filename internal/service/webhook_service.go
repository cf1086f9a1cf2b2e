package service

import (
	"context"
	"net/http"
	"time"

	"paywall/internal/billing"
	"paywall/internal/metrics"

	"github.com/rs/zerolog"
)

// Response bodies of the webhook endpoint.
type (
	WebhookError struct {
		Error string `json:"error"`
	}
	WebhookAck struct {
		Received bool `json:"received"`
	}
)

// WebhookResult is the HTTP status and JSON body to answer Stripe with.
type WebhookResult struct {
	Status int
	Body   any
}

var (
	resultMissingSignature = WebhookResult{Status: http.StatusBadRequest, Body: WebhookError{Error: "Missing signature"}}
	resultInvalidSignature = WebhookResult{Status: http.StatusBadRequest, Body: WebhookError{Error: "Invalid signature"}}
	resultInvalidPayload   = WebhookResult{Status: http.StatusBadRequest, Body: WebhookError{Error: "Invalid payload"}}
	resultFailed           = WebhookResult{Status: http.StatusInternalServerError, Body: WebhookError{Error: "Webhook processing failed"}}
	resultReceived         = WebhookResult{Status: http.StatusOK, Body: WebhookAck{Received: true}}
)

// WebhookService authenticates Stripe deliveries and routes them to the
// subscription state. A 5xx result makes Stripe redeliver; nothing is retried
// in-process.
type WebhookService struct {
	verifier billing.Verifier
	subSvc   SubscriptionService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewWebhookService(verifier billing.Verifier, subSvc SubscriptionService, m *metrics.Metrics, logger zerolog.Logger) *WebhookService {
	return &WebhookService{
		verifier: verifier,
		subSvc:   subSvc,
		metrics:  m,
		logger:   logger.With().Str("service", "WebhookService").Logger(),
	}
}

func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) WebhookResult {
	start := time.Now()

	if signature == "" {
		s.logger.Warn().Msg("Stripe webhook without signature header")
		s.metrics.ObserveWebhook("", metrics.OutcomeBadSignature, time.Since(start))
		return resultMissingSignature
	}

	evt, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		s.metrics.ObserveWebhook("", metrics.OutcomeBadSignature, time.Since(start))
		return resultInvalidSignature
	}
	eventType := string(evt.Type)
	lg := s.logger.With().Str("event_id", evt.ID).Str("event_type", eventType).Logger()
	lg.Info().Msg("Stripe webhook received")

	// Correlation comes before the shape check: events without a customer or
	// for an unknown customer are acknowledged whatever their shape.
	outcome, err := s.subSvc.Apply(ctx, billing.Decode(evt))
	if err != nil {
		lg.Error().Err(err).Msg("Stripe webhook processing failed")
		s.metrics.ObserveWebhook(eventType, metrics.OutcomeError, time.Since(start))
		return resultFailed
	}

	s.metrics.ObserveWebhook(eventType, string(outcome), time.Since(start))
	if outcome == OutcomeBadPayload {
		return resultInvalidPayload
	}
	return resultReceived
}
