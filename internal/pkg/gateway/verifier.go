package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Config holds the merchant credentials shared with the payment gateway. It
// is read once at startup and injected; handlers never re-read ambient state.
type Config struct {
	MerchantKey  string
	MerchantSalt string
}

// Verifier authenticates inbound gateway callbacks by recomputing the keyed
// digest over the canonical field ordering.
type Verifier struct {
	key  string
	salt string
}

// NewVerifier validates the merchant configuration once, fail-fast.
func NewVerifier(cfg Config) (*Verifier, error) {
	key := strings.TrimSpace(cfg.MerchantKey)
	salt := strings.TrimSpace(cfg.MerchantSalt)
	if key == "" || salt == "" {
		return nil, ErrMissingConfig
	}
	return &Verifier{key: key, salt: salt}, nil
}

// Verify recomputes the response digest and compares it in constant time to
// the hash the gateway supplied. Any mismatch, including a key mismatch, is
// ErrAuthenticationFailed and must stop the pipeline before any persistence.
func (v *Verifier) Verify(cb CallbackFields) error {
	supplied := strings.ToLower(strings.TrimSpace(cb.Hash))
	if supplied == "" {
		return ErrAuthenticationFailed
	}
	expected := v.digest(cb)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) != 1 {
		return ErrAuthenticationFailed
	}
	return nil
}

// digest computes the gateway's response checksum: a SHA-512 over the salted,
// pipe-joined reverse field sequence. The five reserved slots between status
// and udf3 are always empty.
func (v *Verifier) digest(cb CallbackFields) string {
	parts := []string{
		v.salt,
		cb.Status,
		"", "", "", "", "",
		cb.UDF3,
		cb.UDF2,
		cb.UDF1,
		cb.Email,
		cb.FirstName,
		cb.ProductInfo,
		cb.Amount,
		cb.TxnID,
		v.key,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
