package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

const defaultCallTimeout = 15 * time.Second

type Razorpay struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
	callTimeout   time.Duration
}

func NewRazorpay(keyID, keySecret, webhookSecret string) *Razorpay {
	return &Razorpay{
		client:        razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		callTimeout:   defaultCallTimeout,
	}
}

func (g *Razorpay) KeyID() string { return g.keyID }

func (g *Razorpay) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]interface{}) (*Order, error) {
	// Razorpay wants the amount in paise.
	data := map[string]interface{}{
		"amount":   int(amount * 100),
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	type result struct {
		order map[string]interface{}
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		order, err := g.client.Order.Create(data, nil)
		ch <- result{order: order, err: err}
	}()

	timeout := g.callTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("%w: create order: %v", ErrUnavailable, res.err)
		}
		id, ok := res.order["id"].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: create order: missing order id", ErrUnavailable)
		}
		return &Order{ID: id, Amount: amount, Currency: currency}, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: create order timed out", ErrUnavailable)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// VerifyPaymentSignature checks the checkout callback signature:
// HMAC-SHA256 over "order_id|payment_id" with the key secret.
func (g *Razorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	expected := hmacHex(g.keySecret, orderID+"|"+paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the webhook signature: HMAC-SHA256 over
// the raw body with the webhook secret.
func (g *Razorpay) VerifyWebhookSignature(body []byte, signature string) bool {
	expected := hmacHex(g.webhookSecret, string(body))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func hmacHex(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
