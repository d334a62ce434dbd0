package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestVerifier_ValidSignature(t *testing.T) {
	v := NewVerifier("test-secret", false)
	payload := []byte(`{"event":"unconfirmed-tx","hash":"abc123"}`)

	if !v.Verify(payload, v.Sign(payload)) {
		t.Error("Expected valid hex signature to verify")
	}
}

func TestVerifier_SignatureFormats(t *testing.T) {
	v := NewVerifier("test-secret", false)
	payload := []byte(`{"event":"tx-confirmation","hash":"abc123","confirmations":6}`)

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(payload)
	digest := mac.Sum(nil)

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"hex", v.Sign(payload), true},
		{"hex with prefix", "sha256=" + v.Sign(payload), true},
		{"base64", base64.StdEncoding.EncodeToString(digest), true},
		{"tampered", v.Sign([]byte("other payload")), false},
		{"missing", "", false},
		{"garbage", "not-a-signature!!!", false},
		{"prefix only", "sha256=", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.Verify(payload, tc.header); got != tc.want {
				t.Errorf("Verify(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}

func TestVerifier_EmptySecretRejects(t *testing.T) {
	v := NewVerifier("", false)
	payload := []byte(`{}`)

	if v.Verify(payload, v.Sign(payload)) {
		t.Error("An empty secret must fail verification, not allow everything through")
	}
}

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier("test-secret", true)

	if !v.Verify([]byte(`{}`), "") {
		t.Error("Disabled verifier must accept unsigned payloads")
	}
}
