package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paywall/internal/model"
)

func TestReduceCheckoutCompleted(t *testing.T) {
	update, ok := Reduce(CheckoutCompleted{SubscriptionID: "sub_1"})
	require.True(t, ok)
	require.NotNil(t, update.Status)
	assert.Equal(t, model.StatusActive, *update.Status)
	require.NotNil(t, update.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *update.StripeSubscriptionID)
	assert.Nil(t, update.CurrentPeriodEnd)
}

func TestReduceCheckoutCompletedIsIdempotent(t *testing.T) {
	ev := CheckoutCompleted{SubscriptionID: "sub_1"}
	first, _ := Reduce(ev)
	second, _ := Reduce(ev)
	assert.Equal(t, first, second)
}

func TestReduceInvoicePaid(t *testing.T) {
	end := time.Unix(1702592000, 0).UTC()

	update, ok := Reduce(InvoicePaid{PeriodEnd: &end})
	require.True(t, ok)
	assert.Equal(t, model.StatusActive, *update.Status)
	assert.Equal(t, end, *update.CurrentPeriodEnd)

	_, ok = Reduce(InvoicePaid{})
	assert.False(t, ok, "no period end means no mutation")
}

func TestReducePaymentFailedAndDeleted(t *testing.T) {
	update, ok := Reduce(InvoicePaymentFailed{})
	require.True(t, ok)
	assert.Equal(t, model.StatusPastDue, *update.Status)

	update, ok = Reduce(SubscriptionDeleted{})
	require.True(t, ok)
	assert.Equal(t, model.StatusExpired, *update.Status)
}

func TestReduceSubscriptionUpdatedPrecedence(t *testing.T) {
	cases := []struct {
		name string
		ev   SubscriptionUpdated
		want model.SubscriptionStatus
	}{
		{name: "cancel flag beats past due", ev: SubscriptionUpdated{CancelAtPeriodEnd: true, Status: "past_due"}, want: model.StatusCanceled},
		{name: "cancel flag on active", ev: SubscriptionUpdated{CancelAtPeriodEnd: true, Status: "active"}, want: model.StatusCanceled},
		{name: "past due", ev: SubscriptionUpdated{Status: "past_due"}, want: model.StatusPastDue},
		{name: "active", ev: SubscriptionUpdated{Status: "active"}, want: model.StatusActive},
		{name: "anything else is active", ev: SubscriptionUpdated{Status: "trialing"}, want: model.StatusActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			update, ok := Reduce(tc.ev)
			require.True(t, ok)
			assert.Equal(t, tc.want, *update.Status)
		})
	}
}

func TestReduceSubscriptionUpdatedPrice(t *testing.T) {
	update, _ := Reduce(SubscriptionUpdated{Status: "active", PriceID: "price_pro"})
	require.NotNil(t, update.StripePriceID)
	assert.Equal(t, "price_pro", *update.StripePriceID)

	update, _ = Reduce(SubscriptionUpdated{Status: "active"})
	assert.Nil(t, update.StripePriceID)
}

func TestReduceUnhandled(t *testing.T) {
	update, ok := Reduce(Unhandled{})
	assert.False(t, ok)
	assert.Equal(t, model.AccountUpdate{}, update)

	update, ok = Reduce(Malformed{})
	assert.False(t, ok)
	assert.Equal(t, model.AccountUpdate{}, update)
}
