package storefront

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Error kinds surfaced to the UI layer. Backends wrap them so callers can
// match with errors.Is regardless of the message text.
var (
	// ErrUnauthorized means the token is missing, invalid or expired. The
	// token is always cleared when it is seen.
	ErrUnauthorized = errors.New("please sign in to continue")
	// ErrNotFound means the addressed resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNetwork is a transport level failure.
	ErrNetwork = errors.New("network error, please try again")
	// ErrUnsupported is returned by backends lacking an optional endpoint.
	ErrUnsupported = errors.New("not supported by backend")

	ErrNoAddress       = errors.New("Please save your delivery address first")
	ErrEmptyCart       = errors.New("your cart is empty")
	ErrAttemptStarted  = errors.New("checkout attempt already started")
	ErrAlreadyVerified = errors.New("payment already submitted for verification")
	ErrAmountMismatch  = errors.New("gateway order amount differs from checkout total")
)

// RequestError is a non-2xx response. Message is the server text, shown to
// the user verbatim.
type RequestError struct {
	Status  int
	Message string
	// Kind is the sentinel matching the status, if any.
	Kind error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

// VerificationError is a failed online payment. The cart is left intact so
// the customer can retry.
type VerificationError struct {
	Message string
	// SupportHint is set when the customer may already have been charged.
	SupportHint string
	Err         error
}

func (e *VerificationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "payment verification failed"
	}
	if e.SupportHint != "" {
		msg += ". " + e.SupportHint
	}
	return msg
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports a multi-step operation that stopped midway.
// The cart must be reloaded to observe its true state.
type PartialFailureError struct {
	Done   []cart.Key
	Failed cart.Key
	Err    error
}

func (e *PartialFailureError) Error() string {
	done := make([]string, len(e.Done))
	for i, k := range e.Done {
		done[i] = k.String()
	}
	return fmt.Sprintf("removed [%s], failed at %s: %v", strings.Join(done, ", "), e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
