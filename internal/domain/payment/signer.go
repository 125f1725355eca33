package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Signer produces and checks gateway signatures: hex HMAC-SHA256 of
// "<gateway order id>|<payment id>" keyed with the account secret.
type Signer struct {
	keyID  string
	secret []byte
}

// NewSigner creates a Signer for the given gateway account.
func NewSigner(keyID, secret string) *Signer {
	return &Signer{keyID: keyID, secret: []byte(secret)}
}

// KeyID returns the public key id handed to the widget.
func (s *Signer) KeyID() string {
	return s.keyID
}

// Sign returns the signature for a payment of a gateway order.
func (s *Signer) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the confirmation carries a valid signature.
func (s *Signer) Verify(c Confirmation) bool {
	want := s.Sign(c.GatewayOrderID, c.PaymentID)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(c.Signature)))
}

// NewGatewayOrderID returns a fresh gateway order id.
func NewGatewayOrderID() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// NewPaymentID returns a fresh payment id, as a sandbox gateway would.
func NewPaymentID() string {
	return "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
