package gateway

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every failure of the external payment service:
// network errors, rejected requests, timeouts. Callers surface it as a
// retryable gateway error and never treat it as success.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Order is the gateway-side order a client-side checkout completes
// against.
type Order struct {
	ID       string
	Amount   float64
	Currency string
}

// Gateway is the capability contract consumed from the payment
// provider: order creation plus the two signature checks. Implemented
// by the Razorpay client; faked in tests.
type Gateway interface {
	// CreateOrder opens a gateway order. Not idempotent on the
	// gateway side: call at most once per pricing attempt and persist
	// the returned id immediately.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]interface{}) (*Order, error)

	// VerifyPaymentSignature checks the signature returned by the
	// client-side checkout callback.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool

	// VerifyWebhookSignature checks the server-to-server notification
	// signature against the raw body. Must pass before any payload
	// field is trusted.
	VerifyWebhookSignature(body []byte, signature string) bool

	// KeyID is the public key the frontend checkout needs.
	KeyID() string
}
