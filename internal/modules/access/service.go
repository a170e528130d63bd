package access

import (
	"context"
	"errors"
	"time"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

// Service owns note entitlements. Every grant is get-or-create on
// (student, note, access type), so replayed payment settlements and
// concurrent webhooks converge on a single row. Grants are deactivated,
// never deleted.
type Service struct {
	grants  grantStore
	notes   noteSource
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(grants grantStore, notes noteSource, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{grants: grants, notes: notes, loggerf: loggerf, now: time.Now}
}

// GrantFromPurchase entitles the buyer to the purchased note. Paid
// purchases are lifetime: whatever duration the note configures, the
// grant carries no expiry. An existing grant is re-armed rather than
// duplicated.
func (s *Service) GrantFromPurchase(ctx context.Context, p *domain.NotePurchase) error {
	grant := &domain.NoteAccess{
		StudentID:  p.StudentID,
		NoteID:     p.NoteID,
		AccessType: domain.AccessPurchase,
		PurchaseID: &p.ID,
		ValidUntil: nil,
		IsActive:   true,
	}
	existing, created, err := s.grants.GetOrCreate(ctx, grant)
	if err != nil {
		return err
	}
	if created {
		s.loggerf("level=info msg=purchase access granted student_id=%d note_id=%d", p.StudentID, p.NoteID)
		return nil
	}
	if !existing.IsActive || existing.ValidUntil != nil {
		existing.IsActive = true
		existing.ValidUntil = nil
		existing.PurchaseID = &p.ID
		return s.grants.Save(ctx, existing)
	}
	return nil
}

// GrantFromBooking entitles a freshly enrolled student to every live
// course-specific note of the product, inheriting the course expiry.
func (s *Service) GrantFromBooking(ctx context.Context, b *domain.Booking) error {
	courseNotes, err := s.notes.ListCourseNotes(ctx, b.ProductID)
	if err != nil {
		return err
	}
	for i := range courseNotes {
		grant := &domain.NoteAccess{
			StudentID:  b.StudentID,
			NoteID:     courseNotes[i].ID,
			AccessType: domain.AccessCourseBooking,
			BookingID:  &b.ID,
			ValidUntil: b.CourseExpiryDate,
			IsActive:   true,
		}
		if _, _, err := s.grants.GetOrCreate(ctx, grant); err != nil {
			return err
		}
	}
	if len(courseNotes) > 0 {
		s.loggerf("level=info msg=course access granted booking_ref=%s notes=%d", b.BookingRef, len(courseNotes))
	}
	return nil
}

// GrantManual creates an admin-issued grant with an arbitrary validity.
func (s *Service) GrantManual(ctx context.Context, req GrantManualRequest, actor Actor) (*domain.NoteAccess, error) {
	if domain.UserRole(actor.Role) != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, err := s.notes.GetByID(ctx, req.NoteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	grant := &domain.NoteAccess{
		StudentID:   req.StudentID,
		NoteID:      req.NoteID,
		AccessType:  domain.AccessManual,
		ValidUntil:  req.ValidUntil,
		IsActive:    true,
		GrantedByID: &actor.UserID,
	}
	existing, created, err := s.grants.GetOrCreate(ctx, grant)
	if err != nil {
		return nil, err
	}
	if !created {
		existing.IsActive = true
		existing.ValidUntil = req.ValidUntil
		existing.GrantedByID = &actor.UserID
		if err := s.grants.Save(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// GrantFreeEnrollment hands out access to a free note. Unlike paid
// purchases, free enrollments honor the note's configured duration.
func (s *Service) GrantFreeEnrollment(ctx context.Context, studentID, noteID int64) (*domain.NoteAccess, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	var validUntil *time.Time
	if note.AccessDurationDays > 0 {
		t := s.now().AddDate(0, 0, note.AccessDurationDays)
		validUntil = &t
	}
	grant := &domain.NoteAccess{
		StudentID:  studentID,
		NoteID:     noteID,
		AccessType: domain.AccessFreeEnrollment,
		ValidUntil: validUntil,
		IsActive:   true,
	}
	existing, _, err := s.grants.GetOrCreate(ctx, grant)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Deactivate revokes a grant while keeping the row for history. Admins
// may revoke anything; a teacher may revoke grants on their own notes.
func (s *Service) Deactivate(ctx context.Context, grantID int64, actor Actor) error {
	grant, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGrantNotFound
		}
		return err
	}

	role := domain.UserRole(actor.Role)
	if role != domain.RoleAdmin {
		if role != domain.RoleTeacher {
			return ErrForbidden
		}
		note, err := s.notes.GetByID(ctx, grant.NoteID)
		if err != nil {
			return err
		}
		if note.CreatorID != actor.UserID {
			return ErrForbidden
		}
	}
	return s.grants.SetActive(ctx, grant.ID, false)
}

// ListGrants returns a student's grants. Students see their own;
// admins may look at anyone.
func (s *Service) ListGrants(ctx context.Context, studentID int64, actor Actor) ([]domain.NoteAccess, error) {
	if domain.UserRole(actor.Role) != domain.RoleAdmin && actor.UserID != studentID {
		return nil, ErrForbidden
	}
	return s.grants.ListByStudent(ctx, studentID)
}

// HasValidGrant reports whether any active, unexpired grant entitles
// the student to the note.
func (s *Service) HasValidGrant(ctx context.Context, studentID, noteID int64) (bool, error) {
	grants, err := s.grants.ListActiveByStudentAndNote(ctx, studentID, noteID)
	if err != nil {
		return false, err
	}
	now := s.now()
	for i := range grants {
		if grants[i].Valid(now) {
			return true, nil
		}
	}
	return false, nil
}
