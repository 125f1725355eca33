package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

// CreateIntentRequest holds the input for a new gateway order.
type CreateIntentRequest struct {
	AddressID string
	Amount    decimal.Decimal
	// Currency defaults to the account currency when empty.
	Currency string
}

// Result is the outcome of a verification. A rejected signature is a
// result with Success unset, not an error.
type Result struct {
	Success bool
	Order   *order.Order
	Message string
}

// Service creates payment intents and verifies gateway confirmations.
type Service struct {
	drafter  *order.Drafter
	intents  Repository
	signer   *Signer
	currency string
	now      func() time.Time

	verifications metric.Int64Counter
}

// NewService creates a payment Service settling in currency.
func NewService(
	drafter *order.Drafter,
	intents Repository,
	signer *Signer,
	currency string,
	meter metric.Meter,
) (*Service, error) {
	verifications, err := meter.Int64Counter("kart.payments.verifications",
		metric.WithDescription("Payment verifications, by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create verifications counter")
	}
	return &Service{
		drafter:       drafter,
		intents:       intents,
		signer:        signer,
		currency:      currency,
		now:           time.Now,
		verifications: verifications,
	}, nil
}

// CreateIntent freezes the cart and address into a new intent whose amount
// is the server-computed total. The client amount must match it.
func (s *Service) CreateIntent(ctx context.Context, userID string, req CreateIntentRequest) (*Intent, error) {
	if req.Currency != "" && req.Currency != s.currency {
		return nil, errors.Wrapf(ErrUnsupportedCurrency, "%q", req.Currency)
	}
	d, err := s.drafter.Draft(ctx, userID, req.AddressID, req.Amount)
	if err != nil {
		return nil, err
	}

	in := &Intent{
		ID:             uuid.NewString(),
		UserID:         userID,
		GatewayOrderID: NewGatewayOrderID(),
		KeyID:          s.signer.KeyID(),
		Amount:         d.Price.Total,
		Currency:       s.currency,
		Draft:          *d,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.intents.Create(ctx, in); err != nil {
		return nil, errors.Wrap(err, "create intent")
	}
	return in, nil
}

// Verify checks the confirmation signature and commits the order frozen in
// the intent. Verifying an already consumed intent again is a no-op that
// returns the order committed the first time.
func (s *Service) Verify(ctx context.Context, userID string, c Confirmation) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	in, err := s.intents.GetByGatewayOrderID(ctx, userID, c.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	if !s.signer.Verify(c) {
		s.count(ctx, "rejected")
		return &Result{Message: "Payment verification failed"}, nil
	}

	o := in.Draft.Build(order.MethodOnline, c.PaymentID)
	o.ID = uuid.NewString()
	o.CreatedAt = s.now().UTC()
	committed, replayed, err := s.intents.Commit(ctx, in.ID, o)
	if err != nil {
		return nil, errors.Wrap(err, "commit order")
	}
	if replayed {
		s.count(ctx, "replayed")
		return &Result{Success: true, Order: committed, Message: "Payment already verified"}, nil
	}
	s.count(ctx, "verified")
	return &Result{Success: true, Order: committed, Message: "Payment verified"}, nil
}

func (s *Service) count(ctx context.Context, outcome string) {
	s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
