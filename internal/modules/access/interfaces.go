package access

import (
	"context"

	"elearn/internal/domain"
)

type grantStore interface {
	GetOrCreate(ctx context.Context, grant *domain.NoteAccess) (*domain.NoteAccess, bool, error)
	Save(ctx context.Context, grant *domain.NoteAccess) error
	GetByID(ctx context.Context, id int64) (*domain.NoteAccess, error)
	SetActive(ctx context.Context, id int64, active bool) error
	ListByStudent(ctx context.Context, studentID int64) ([]domain.NoteAccess, error)
	ListActiveByStudentAndNote(ctx context.Context, studentID, noteID int64) ([]domain.NoteAccess, error)
}

type noteSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Note, error)
	ListCourseNotes(ctx context.Context, productID int64) ([]domain.Note, error)
}
