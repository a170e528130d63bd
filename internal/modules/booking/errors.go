package booking

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrProductNotFound = errors.New("product not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("permission denied")
	ErrAlreadyExpired  = errors.New("payment link is already expired")
	ErrNotAStudent     = errors.New("user exists but is not a student")
)
