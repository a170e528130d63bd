package access

import "errors"

var (
	ErrForbidden     = errors.New("forbidden")
	ErrGrantNotFound = errors.New("access grant not found")
	ErrNoteNotFound  = errors.New("note not found")
)
