package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks gateway callback signatures. The gateway signs
// `gatewayOrderID|paymentID` with HMAC-SHA256 under the shared secret;
// a callback with a bad signature must be rejected before anything else
// is done with its payload.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature is the valid hex HMAC for the pair.
func (v *Verifier) Verify(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
