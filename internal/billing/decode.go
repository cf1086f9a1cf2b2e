package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
)

// customerRef accepts the "customer" field of a Stripe object. Anything other
// than a non-empty JSON string leaves it unset instead of failing the decode.
type customerRef struct {
	id string
	ok bool
}

func (c *customerRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		*c = customerRef{}
		return nil
	}
	*c = customerRef{id: s, ok: true}
	return nil
}

// idRef accepts an expandable Stripe reference: either the bare id or the
// expanded object.
type idRef string

func (r *idRef) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = idRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("expected id or object: %w", err)
	}
	*r = idRef(obj.ID)
	return nil
}

type customerOnlyPayload struct {
	Customer customerRef `json:"customer"`
}

type checkoutSessionPayload struct {
	Customer     customerRef `json:"customer"`
	Subscription idRef       `json:"subscription"`
}

type invoicePayload struct {
	Customer customerRef `json:"customer"`
	Lines    struct {
		Data []struct {
			Period *struct {
				End int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

type subscriptionPayload struct {
	Customer          customerRef `json:"customer"`
	Status            string      `json:"status"`
	CancelAtPeriodEnd bool        `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price *struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Decode maps a verified Stripe event onto its variant. A handled event type
// whose object does not match the expected shape becomes Malformed.
func Decode(evt stripe.Event) Event {
	meta := Meta{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Created: time.Unix(evt.Created, 0).UTC(),
	}

	var raw json.RawMessage
	if evt.Data != nil {
		raw = evt.Data.Raw
	}

	ev, err := decodeVariant(evt.Type, meta, raw)
	if err != nil {
		return Malformed{
			base: base{meta: meta, customer: peekCustomer(raw)},
			Err:  fmt.Errorf("decode %s: %w", meta.Type, err),
		}
	}
	return ev
}

func decodeVariant(typ stripe.EventType, meta Meta, raw json.RawMessage) (Event, error) {
	switch typ {
	case stripe.EventTypeCheckoutSessionCompleted:
		var p checkoutSessionPayload
		if err := unmarshalObject(raw, &p); err != nil {
			return nil, err
		}
		return CheckoutCompleted{
			base:           base{meta: meta, customer: p.Customer},
			SubscriptionID: string(p.Subscription),
		}, nil

	case stripe.EventTypeInvoicePaid:
		var p invoicePayload
		if err := unmarshalObject(raw, &p); err != nil {
			return nil, err
		}
		ev := InvoicePaid{base: base{meta: meta, customer: p.Customer}}
		if len(p.Lines.Data) > 0 && p.Lines.Data[0].Period != nil && p.Lines.Data[0].Period.End != 0 {
			end := time.Unix(p.Lines.Data[0].Period.End, 0).UTC()
			ev.PeriodEnd = &end
		}
		return ev, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var p customerOnlyPayload
		if err := unmarshalObject(raw, &p); err != nil {
			return nil, err
		}
		return InvoicePaymentFailed{base: base{meta: meta, customer: p.Customer}}, nil

	case stripe.EventTypeCustomerSubscriptionUpdated:
		var p subscriptionPayload
		if err := unmarshalObject(raw, &p); err != nil {
			return nil, err
		}
		ev := SubscriptionUpdated{
			base:              base{meta: meta, customer: p.Customer},
			Status:            p.Status,
			CancelAtPeriodEnd: p.CancelAtPeriodEnd,
		}
		if len(p.Items.Data) > 0 && p.Items.Data[0].Price != nil {
			ev.PriceID = p.Items.Data[0].Price.ID
		}
		return ev, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var p customerOnlyPayload
		if err := unmarshalObject(raw, &p); err != nil {
			return nil, err
		}
		return SubscriptionDeleted{base: base{meta: meta, customer: p.Customer}}, nil

	default:
		return Unhandled{base: base{meta: meta, customer: peekCustomer(raw)}}, nil
	}
}

// peekCustomer reads only the correlation key. A payload it cannot read has
// none.
func peekCustomer(raw json.RawMessage) customerRef {
	var p customerOnlyPayload
	_ = unmarshalObject(raw, &p)
	return p.Customer
}

func unmarshalObject(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("event has no data object")
	}
	return json.Unmarshal(raw, v)
}
