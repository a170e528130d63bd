package pricing

import "errors"

// ErrManualDiscountForbidden is an authorization failure: the caller
// tried to apply a manual discount without the capability grant.
var ErrManualDiscountForbidden = errors.New("manual discount not allowed for this user")

// FieldError is a validation failure attached to a single input field,
// so the API can report it next to the offending form control.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
