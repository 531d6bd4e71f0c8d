package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"app_subscription":{"status":"ACTIVE"}}`)
	secret := "shpss_test_secret"

	if !VerifyWebhookSignature(payload, sign(payload, secret), secret) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyWebhookSignatureRejections(t *testing.T) {
	payload := []byte(`{"app_subscription":{"status":"ACTIVE"}}`)
	secret := "shpss_test_secret"

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
	}{
		{name: "wrong secret", payload: payload, signature: sign(payload, "other"), secret: secret},
		{name: "tampered payload", payload: []byte(`{"app_subscription":{"status":"CANCELLED"}}`), signature: sign(payload, secret), secret: secret},
		{name: "empty signature", payload: payload, signature: "", secret: secret},
		{name: "empty secret", payload: payload, signature: sign(payload, secret), secret: ""},
		{name: "not base64", payload: payload, signature: "%%%not-base64%%%", secret: secret},
	}

	for _, tt := range tests {
		if VerifyWebhookSignature(tt.payload, tt.signature, tt.secret) {
			t.Fatalf("%s: expected signature to be rejected", tt.name)
		}
	}
}
