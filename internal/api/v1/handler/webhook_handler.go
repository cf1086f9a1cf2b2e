package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"paywall/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBody bounds what is read from a webhook request.
const maxWebhookBody = 1 << 20

// WebhookProcessor turns a raw delivery into the response for Stripe.
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) service.WebhookResult
}

// WebhookHandler receives Stripe webhooks. It is mounted as a raw handler
// because signature verification needs the exact request bytes.
type WebhookHandler struct {
	processor WebhookProcessor
	logger    zerolog.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, service.WebhookError{Error: "Invalid payload"})
			return
		}
		h.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		writeJSON(w, http.StatusBadRequest, service.WebhookError{Error: "Invalid payload"})
		return
	}

	res := h.processor.ProcessWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	writeJSON(w, res.Status, res.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
