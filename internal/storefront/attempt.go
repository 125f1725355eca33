package storefront

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/wire"
)

// State is the position of a checkout attempt.
type State int

const (
	Idle State = iota
	CODPlacing
	GatewayOrderRequested
	GatewayWidgetOpen
	VerifyingSignature
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case CODPlacing:
		return "CODPlacing"
	case GatewayOrderRequested:
		return "GatewayOrderRequested"
	case GatewayWidgetOpen:
		return "GatewayWidgetOpen"
	case VerifyingSignature:
		return "VerifyingSignature"
	case Committed:
		return "Committed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Committed || s == Failed
}

type event int

const (
	evPlaceCOD event = iota
	evRequestIntent
	evIntentCreated
	evPaymentCompleted
	evCommitted
	evFailed
)

// transitions is the whole checkout state machine. Payment methods only
// fire events; a method reaching a state not listed here is a bug.
var transitions = map[State]map[event]State{
	Idle: {
		evPlaceCOD:      CODPlacing,
		evRequestIntent: GatewayOrderRequested,
	},
	CODPlacing: {
		evCommitted: Committed,
		evFailed:    Failed,
	},
	GatewayOrderRequested: {
		evIntentCreated: GatewayWidgetOpen,
		evFailed:        Failed,
	},
	GatewayWidgetOpen: {
		evPaymentCompleted: VerifyingSignature,
		evFailed:           Failed,
	},
	VerifyingSignature: {
		evCommitted: Committed,
		evFailed:    Failed,
	},
}

// Method is a way to pay: COD or Online.
type Method interface {
	// Kind is the order payment method this variant produces.
	Kind() order.Method
	// start is the event that leaves Idle; Run fires it before calling run.
	start() event
	run(ctx context.Context, a *Attempt) (*order.Order, error)
}

// COD places the order for cash on delivery.
type COD struct{}

func (COD) Kind() order.Method { return order.MethodCOD }

func (COD) start() event { return evPlaceCOD }

func (COD) run(ctx context.Context, a *Attempt) (*order.Order, error) {
	return guard(ctx, a.co.auth, func(ctx context.Context, token string) (*order.Order, error) {
		return a.co.payments.PlaceCOD(ctx, token, wire.CheckoutRequest{
			AddressID: a.Address.ID,
			Amount:    a.Breakdown.Total,
		})
	})
}

// Prefill is customer data the widget shows pre-filled.
type Prefill struct {
	Name    string
	Contact string
	Email   string
}

// WidgetRequest is what the payment widget is opened with.
type WidgetRequest struct {
	IntentID string
	KeyID    string
	Amount   decimal.Decimal
	Currency string
	Prefill  Prefill
}

// Widget is the third-party payment UI. Open blocks until the customer
// completes the payment and returns the provider confirmation payload
// untouched. There is no timeout: an abandoned widget simply never returns
// until ctx is cancelled.
type Widget interface {
	Open(ctx context.Context, req WidgetRequest) ([]byte, error)
}

// Online pays through the gateway widget before the order is committed.
type Online struct {
	Widget  Widget
	Prefill Prefill
}

func (Online) Kind() order.Method { return order.MethodOnline }

func (Online) start() event { return evRequestIntent }

func (m Online) run(ctx context.Context, a *Attempt) (*order.Order, error) {
	in, err := guard(ctx, a.co.auth, func(ctx context.Context, token string) (*payment.Intent, error) {
		return a.co.payments.CreateIntent(ctx, token, wire.CheckoutRequest{
			AddressID: a.Address.ID,
			Amount:    a.Breakdown.Total,
			Currency:  a.co.currency,
		})
	})
	if err != nil {
		return nil, err
	}
	if !in.Amount.Equal(a.Breakdown.Total) {
		return nil, errors.Wrapf(ErrAmountMismatch, "%s != %s", in.Amount, a.Breakdown.Total)
	}
	a.setIntent(in)
	if err := a.fire(evIntentCreated); err != nil {
		return nil, err
	}

	prefill := m.Prefill
	if prefill.Name == "" {
		prefill.Name = a.Address.FullName
	}
	if prefill.Contact == "" {
		prefill.Contact = a.Address.MobileNumber
	}
	confirmation, err := m.Widget.Open(ctx, WidgetRequest{
		IntentID: in.GatewayOrderID,
		KeyID:    in.KeyID,
		Amount:   a.Breakdown.Total,
		Currency: in.Currency,
		Prefill:  prefill,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return nil, errors.Wrap(err, "payment widget")
	}
	if err := a.fire(evPaymentCompleted); err != nil {
		return nil, err
	}

	res, err := a.verify(ctx, confirmation)
	hint := fmt.Sprintf("If your account was charged, contact support quoting reference %s.", in.GatewayOrderID)
	if err != nil {
		return nil, &VerificationError{Message: "payment could not be verified", SupportHint: hint, Err: err}
	}
	if !res.Success {
		return nil, &VerificationError{Message: res.Message, SupportHint: hint}
	}

	o := a.committedView(order.MethodOnline, order.StatusPaid)
	o.ID = res.OrderID
	return o, nil
}

// abandonedError marks a widget left open until the caller gave up. The
// attempt stays in GatewayWidgetOpen.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return "payment abandoned: " + e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }
