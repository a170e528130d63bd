package payment

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSignature means the gateway signature did not verify. A durable
	// failed ledger row is written before this is returned.
	ErrSignature = errors.New("payment signature verification failed")
)
