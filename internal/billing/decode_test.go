package billing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func newEvent(t *testing.T, typ stripe.EventType, object any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		ID:      "evt_test",
		Type:    typ,
		Created: 1735689600,
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestDecodeCheckoutCompleted(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":           "cs_1",
		"customer":     "cus_123",
		"subscription": "sub_123",
	})

	decoded := Decode(evt)

	ev, ok := decoded.(CheckoutCompleted)
	require.True(t, ok, "got %T", decoded)
	assert.Equal(t, "sub_123", ev.SubscriptionID)

	customer, found := ev.CustomerID()
	assert.True(t, found)
	assert.Equal(t, "cus_123", customer)

	meta := ev.Meta()
	assert.Equal(t, "evt_test", meta.ID)
	assert.Equal(t, "checkout.session.completed", meta.Type)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), meta.Created)
}

func TestDecodeCheckoutCompletedExpandedSubscription(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"customer":     "cus_123",
		"subscription": map[string]any{"id": "sub_expanded", "object": "subscription"},
	})

	decoded := Decode(evt)
	assert.Equal(t, "sub_expanded", decoded.(CheckoutCompleted).SubscriptionID)
}

func TestDecodeInvoicePaidPeriodEnd(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeInvoicePaid, map[string]any{
		"customer": "cus_123",
		"lines": map[string]any{
			"data": []any{
				map[string]any{"period": map[string]any{"start": 1700000000, "end": 1702592000}},
			},
		},
	})

	decoded := Decode(evt)

	ev := decoded.(InvoicePaid)
	require.NotNil(t, ev.PeriodEnd)
	assert.Equal(t, int64(1702592000)*1000, ev.PeriodEnd.UnixMilli())
}

func TestDecodeInvoicePaidWithoutLines(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeInvoicePaid, map[string]any{
		"customer": "cus_123",
		"lines":    map[string]any{"data": []any{}},
	})

	decoded := Decode(evt)
	assert.Nil(t, decoded.(InvoicePaid).PeriodEnd)
}

func TestDecodeSubscriptionUpdated(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, map[string]any{
		"id":                   "sub_123",
		"customer":             "cus_123",
		"status":               "active",
		"cancel_at_period_end": true,
		"items": map[string]any{
			"data": []any{map[string]any{"price": map[string]any{"id": "price_pro"}}},
		},
	})

	decoded := Decode(evt)

	ev := decoded.(SubscriptionUpdated)
	assert.True(t, ev.CancelAtPeriodEnd)
	assert.Equal(t, "active", ev.Status)
	assert.Equal(t, "price_pro", ev.PriceID)
}

func TestDecodeCustomerCorrelation(t *testing.T) {
	cases := []struct {
		name   string
		object map[string]any
		wantID string
		wantOK bool
	}{
		{name: "string", object: map[string]any{"customer": "cus_1"}, wantID: "cus_1", wantOK: true},
		{name: "missing", object: map[string]any{"id": "x"}},
		{name: "null", object: map[string]any{"customer": nil}},
		{name: "expanded object", object: map[string]any{"customer": map[string]any{"id": "cus_1"}}},
		{name: "number", object: map[string]any{"customer": 42}},
		{name: "empty", object: map[string]any{"customer": ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := Decode(newEvent(t, stripe.EventTypeInvoicePaymentFailed, tc.object))

			id, ok := decoded.CustomerID()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestDecodeUnhandledKeepsCustomer(t *testing.T) {
	decoded := Decode(newEvent(t, "customer.updated", map[string]any{"id": "cus_9", "customer": "cus_9"}))

	_, isUnhandled := decoded.(Unhandled)
	assert.True(t, isUnhandled)

	id, ok := decoded.CustomerID()
	assert.True(t, ok)
	assert.Equal(t, "cus_9", id)
}

func TestDecodeMalformedPayloadKeepsCustomer(t *testing.T) {
	evt := newEvent(t, stripe.EventTypeCustomerSubscriptionUpdated, map[string]any{
		"customer":             "cus_123",
		"cancel_at_period_end": "yes",
	})

	m, ok := Decode(evt).(Malformed)
	require.True(t, ok)
	assert.Error(t, m.Err)
	id, found := m.CustomerID()
	assert.True(t, found)
	assert.Equal(t, "cus_123", id)
}

func TestDecodeMalformedShapes(t *testing.T) {
	cases := []struct {
		name   string
		typ    stripe.EventType
		object map[string]any
		wantID string
		wantOK bool
	}{
		{
			name:   "invoice period end as string without customer",
			typ:    stripe.EventTypeInvoicePaid,
			object: map[string]any{"lines": map[string]any{"data": []any{map[string]any{"period": map[string]any{"end": "1735689600"}}}}},
		},
		{
			name:   "checkout subscription as number",
			typ:    stripe.EventTypeCheckoutSessionCompleted,
			object: map[string]any{"customer": "cus_unknown", "subscription": 42},
			wantID: "cus_unknown",
			wantOK: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := Decode(newEvent(t, tc.typ, tc.object))
			_, ok := decoded.(Malformed)
			require.True(t, ok, "got %T", decoded)

			id, found := decoded.CustomerID()
			assert.Equal(t, tc.wantOK, found)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestDecodeMissingData(t *testing.T) {
	decoded := Decode(stripe.Event{ID: "evt_1", Type: stripe.EventTypeInvoicePaid})
	_, malformed := decoded.(Malformed)
	assert.True(t, malformed)
	_, ok := decoded.CustomerID()
	assert.False(t, ok)

	decoded = Decode(stripe.Event{ID: "evt_2", Type: "ping"})
	_, unhandled := decoded.(Unhandled)
	assert.True(t, unhandled)
	_, ok = decoded.CustomerID()
	assert.False(t, ok)
}
