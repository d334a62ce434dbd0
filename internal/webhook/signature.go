package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Verifier checks that an inbound notification originated from the configured
// provider. It is a pure function over its inputs and never panics; a missing
// or malformed signature header fails verification.
type Verifier struct {
	secret   []byte
	disabled bool
}

// NewVerifier creates a Verifier for the shared webhook secret. disabled skips
// verification entirely and must only be set for local development.
func NewVerifier(secret string, disabled bool) *Verifier {
	return &Verifier{secret: []byte(secret), disabled: disabled}
}

// Verify reports whether signatureHeader matches the HMAC-SHA256 digest of
// payload. The header may carry the digest hex- or base64-encoded, optionally
// with a "sha256=" prefix. Comparison is constant-time.
func (v *Verifier) Verify(payload []byte, signatureHeader string) bool {
	if v.disabled {
		return true
	}
	if len(v.secret) == 0 {
		return false
	}

	header := strings.TrimSpace(signatureHeader)
	if lower := strings.ToLower(header); strings.HasPrefix(lower, "sha256=") {
		header = strings.TrimSpace(header[len("sha256="):])
	}
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(header); err == nil {
		return hmac.Equal(decoded, expected)
	}
	if decoded, err := base64.StdEncoding.DecodeString(header); err == nil {
		return hmac.Equal(decoded, expected)
	}
	return false
}

// Sign computes the hex-encoded signature for a payload. Used by the
// simulation harness and tests to produce valid deliveries.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
