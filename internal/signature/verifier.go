package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature indicates the presented signature is absent,
// malformed, or does not match the payload.
var ErrInvalidSignature = errors.New("invalid signature")

// Sign computes the hex-encoded HMAC-SHA256 of the canonical payload
// bytes under the shared secret.
func Sign(canonical, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier authenticates webhook payloads against a shared secret. The
// secret is fixed at construction and never mutated.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify canonicalizes rawBody, signs it, and compares against the
// presented signature in constant time. It must be called before any
// database access: unauthenticated payloads never reach the state
// machine. Returns ErrMalformedPayload for unparseable bodies and
// ErrInvalidSignature on any mismatch.
func (v *Verifier) Verify(rawBody []byte, presented string) error {
	canonical, err := Canonicalize(rawBody)
	if err != nil {
		return err
	}
	if presented == "" {
		return ErrInvalidSignature
	}
	expected := Sign(canonical, v.secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
