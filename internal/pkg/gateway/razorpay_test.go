package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	g := NewRazorpay("rzp_test_key", "key_secret", "wh_secret")

	valid := sign("key_secret", "order_123|pay_456")
	assert.True(t, g.VerifyPaymentSignature("order_123", "pay_456", valid))
	assert.False(t, g.VerifyPaymentSignature("order_123", "pay_456", "deadbeef"))
	assert.False(t, g.VerifyPaymentSignature("order_999", "pay_456", valid))
}

func TestVerifyWebhookSignature(t *testing.T) {
	g := NewRazorpay("rzp_test_key", "key_secret", "wh_secret")

	body := []byte(`{"event":"payment.captured"}`)
	assert.True(t, g.VerifyWebhookSignature(body, sign("wh_secret", string(body))))
	// signed with the wrong secret
	assert.False(t, g.VerifyWebhookSignature(body, sign("key_secret", string(body))))
	// tampered body
	assert.False(t, g.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), sign("wh_secret", string(body))))
}
