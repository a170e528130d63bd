package repository

import (
	"context"
	"errors"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type NoteAccessRepository struct {
	db *gorm.DB
}

func NewNoteAccessRepository(db *gorm.DB) *NoteAccessRepository {
	return &NoteAccessRepository{db: db}
}

// GetOrCreate looks up the grant for (student, note, access type) and
// creates it when missing. The unique index keeps concurrent callers
// from double-granting; on a duplicate insert the existing row wins.
func (r *NoteAccessRepository) GetOrCreate(ctx context.Context, grant *domain.NoteAccess) (*domain.NoteAccess, bool, error) {
	var existing domain.NoteAccess
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND note_id = ? AND access_type = ?",
			grant.StudentID, grant.NoteID, grant.AccessType).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		if isUniqueViolation(err) {
			err = r.db.WithContext(ctx).
				Where("student_id = ? AND note_id = ? AND access_type = ?",
					grant.StudentID, grant.NoteID, grant.AccessType).
				First(&existing).Error
			if err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return grant, true, nil
}

func (r *NoteAccessRepository) Save(ctx context.Context, grant *domain.NoteAccess) error {
	return r.db.WithContext(ctx).Save(grant).Error
}

func (r *NoteAccessRepository) GetByID(ctx context.Context, id int64) (*domain.NoteAccess, error) {
	var a domain.NoteAccess
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SetActive flips the grant without deleting the historical record.
func (r *NoteAccessRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.WithContext(ctx).Model(&domain.NoteAccess{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *NoteAccessRepository) ListByStudent(ctx context.Context, studentID int64) ([]domain.NoteAccess, error) {
	var rows []domain.NoteAccess
	err := r.db.WithContext(ctx).Preload("Note").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *NoteAccessRepository) ListActiveByStudentAndNote(ctx context.Context, studentID, noteID int64) ([]domain.NoteAccess, error) {
	var rows []domain.NoteAccess
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND note_id = ? AND is_active = ?", studentID, noteID, true).
		Find(&rows).Error
	return rows, err
}
