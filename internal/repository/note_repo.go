package repository

import (
	"context"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	var n domain.Note
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListCourseNotes returns the live course-specific notes attached to a
// product, for enrollment-derived access grants.
func (r *NoteRepository) ListCourseNotes(ctx context.Context, productID int64) ([]domain.Note, error) {
	var rows []domain.Note
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND note_type = ? AND is_active = ? AND is_draft = ?",
			productID, domain.NoteCourseSpecific, true, false).
		Find(&rows).Error
	return rows, err
}

// GetPurchasable returns a note that is live (active, not a draft).
func (r *NoteRepository) GetPurchasable(ctx context.Context, id int64) (*domain.Note, error) {
	var n domain.Note
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ? AND is_draft = ?", id, true, false).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}
