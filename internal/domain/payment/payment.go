package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

var (
	// ErrIntentNotFound is returned when no intent matches a gateway order
	// id for the caller.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrMalformedConfirmation is returned when a gateway confirmation
	// lacks one of its fields.
	ErrMalformedConfirmation = errors.New("malformed payment confirmation")
	// ErrUnsupportedCurrency is returned for intents in a currency the
	// gateway account does not settle.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Intent is an amount-bound gateway order. The draft freezes the cart and
// address the customer saw when the intent was created, so the committed
// order matches what was paid for even if the cart changes meanwhile.
type Intent struct {
	ID             string
	UserID         string
	GatewayOrderID string
	KeyID          string
	Amount         decimal.Decimal
	Currency       string
	Draft          order.Draft
	CreatedAt      time.Time
}

// Confirmation is the payload the gateway widget returns after a payment.
type Confirmation struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Validate checks that every field is present.
func (c Confirmation) Validate() error {
	if c.GatewayOrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return ErrMalformedConfirmation
	}
	return nil
}

// Repository defines persistence operations for payment intents.
type Repository interface {
	Create(ctx context.Context, in *Intent) error
	GetByGatewayOrderID(ctx context.Context, userID, gatewayOrderID string) (*Intent, error)
	// Commit consumes the intent, stores o and takes o's items out of the
	// owner's cart in one transaction. An intent is consumed at most once: when it already was,
	// Commit stores nothing and returns the order committed back then with
	// replayed set.
	Commit(ctx context.Context, intentID string, o *order.Order) (committed *order.Order, replayed bool, err error)
}
