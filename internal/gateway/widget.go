// Package gateway provides payment widgets for terminals and tests: a
// sandbox that settles every payment immediately, and a prompt that waits
// for the confirmation from a real hosted checkout page.
package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/storefront"
	"github.com/xenking/kart-storefront/internal/wire"
)

var (
	_ storefront.Widget = (*Sandbox)(nil)
	_ storefront.Widget = (*Prompt)(nil)
)

// Sandbox pays every intent at once and signs the confirmation with the
// account secret, the way the hosted gateway does.
type Sandbox struct {
	Signer *payment.Signer
	// Decline makes the sandbox return an unsigned confirmation, which the
	// server rejects.
	Decline bool
}

func (s *Sandbox) Open(ctx context.Context, req storefront.WidgetRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.KeyID != s.Signer.KeyID() {
		return nil, errors.Errorf("intent was created for key %q, sandbox has %q", req.KeyID, s.Signer.KeyID())
	}
	c := payment.Confirmation{
		GatewayOrderID: req.IntentID,
		PaymentID:      payment.NewPaymentID(),
	}
	c.Signature = s.Signer.Sign(c.GatewayOrderID, c.PaymentID)
	if s.Decline {
		c.Signature = strings.Repeat("0", len(c.Signature))
	}
	return wire.Encode(func(e *jx.Encoder) { wire.EncodeConfirmation(e, c) }), nil
}

// Prompt shows the payment details on Out and reads the confirmation JSON
// the hosted checkout page produced from In, one line.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

func (p *Prompt) Open(ctx context.Context, req storefront.WidgetRequest) ([]byte, error) {
	fmt.Fprintf(p.Out, "Pay %s %s for gateway order %s (key %s)\n",
		req.Amount.StringFixed(2), req.Currency, req.IntentID, req.KeyID)
	if req.Prefill.Name != "" {
		fmt.Fprintf(p.Out, "Customer: %s %s\n", req.Prefill.Name, req.Prefill.Contact)
	}
	fmt.Fprintln(p.Out, "Paste the confirmation JSON and press Enter:")

	type result struct {
		line []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadBytes('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		line := []byte(strings.TrimSpace(string(r.line)))
		if len(line) == 0 {
			if r.err != nil {
				return nil, errors.Wrap(r.err, "read confirmation")
			}
			return nil, errors.New("empty confirmation")
		}
		if !jx.Valid(line) {
			return nil, errors.New("confirmation is not valid JSON")
		}
		return line, nil
	}
}
