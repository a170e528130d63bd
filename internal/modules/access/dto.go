package access

import "time"

// Actor identifies the authenticated caller, as extracted from the JWT
// claims.
type Actor struct {
	UserID int64
	Role   string
}

type GrantManualRequest struct {
	StudentID int64 `json:"student_id" binding:"required"`
	NoteID    int64 `json:"note_id" binding:"required"`

	// nil = lifetime.
	ValidUntil *time.Time `json:"valid_until"`
}
