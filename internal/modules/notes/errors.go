package notes

import "errors"

var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyOwned     = errors.New("note already purchased")
	ErrNotPurchasable   = errors.New("note is not purchasable")

	// ErrSignature means the gateway signature did not verify; the
	// purchase is marked failed unless it already succeeded.
	ErrSignature = errors.New("payment signature verification failed")
)
