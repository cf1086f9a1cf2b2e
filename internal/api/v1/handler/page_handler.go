package handler

import (
	"net/http"
	"time"

	"paywall/internal/access"
	"paywall/internal/middleware"
)

// PageHandler serves the JSON views behind the purchase flow and the
// protected area. The route guard has already loaded the account for /app.
type PageHandler struct {
	priceID        string
	publishableKey string
	now            func() time.Time
}

func NewPageHandler(priceID, publishableKey string) *PageHandler {
	return &PageHandler{priceID: priceID, publishableKey: publishableKey, now: time.Now}
}

// Subscribe describes the plan on offer.
func (h *PageHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"price_id":        h.priceID,
		"publishable_key": h.publishableKey,
		"checkout_url":    "/api/stripe/checkout",
		"signed_in":       middleware.IdentityFromContext(r.Context()) != nil,
		"checkout":        r.URL.Query().Get("checkout"),
	})
}

// Dashboard is the landing page of the protected area.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	a := middleware.AccountFromContext(r.Context())
	if a == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":               a.Email,
		"subscription_status": a.SubscriptionStatus,
		"is_past_due":         access.IsPastDue(a.SubscriptionStatus),
		"current_period_end":  a.CurrentPeriodEnd,
		"checkout":            r.URL.Query().Get("checkout"),
	})
}

// NotFound answers protected paths that have no page.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// Settings shows billing details and links to the customer portal.
func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	a := middleware.AccountFromContext(r.Context())
	if a == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":               a.Email,
		"subscription_status": a.SubscriptionStatus,
		"is_past_due":         access.IsPastDue(a.SubscriptionStatus),
		"has_access":          access.ForAccount(a, h.now()),
		"stripe_price_id":     a.StripePriceID,
		"current_period_end":  a.CurrentPeriodEnd,
		"has_billing_account": a.StripeCustomerID != nil,
		"portal_url":          "/api/stripe/portal",
	})
}
