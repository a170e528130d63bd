package notes

import (
	"context"
	"time"

	"elearn/internal/domain"
)

type noteStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Note, error)
	GetPurchasable(ctx context.Context, id int64) (*domain.Note, error)
}

type purchaseStore interface {
	Create(ctx context.Context, p *domain.NotePurchase) error
	Save(ctx context.Context, p *domain.NotePurchase) error
	GetByRef(ctx context.Context, ref string) (*domain.NotePurchase, error)
	GetByStudentAndNote(ctx context.Context, studentID, noteID int64) (*domain.NotePurchase, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.NotePurchase, error)
	SaveOrderID(ctx context.Context, purchaseID int64, orderID string) error
	MarkPaid(ctx context.Context, purchaseID int64, orderID, paymentID, signature string, paidAt time.Time) (bool, error)
	MarkFailedIfNotPaid(ctx context.Context, purchaseID int64) error
}

// enrollmentChecker answers whether a student holds a live paid course
// enrollment; course-specific notes ride on it.
type enrollmentChecker interface {
	HasActivePaidBooking(ctx context.Context, studentID, productID int64) (bool, error)
}

// grantService is the slice of the access service the marketplace
// needs: granting on settlement and checking entitlements.
type grantService interface {
	GrantFromPurchase(ctx context.Context, p *domain.NotePurchase) error
	GrantFreeEnrollment(ctx context.Context, studentID, noteID int64) (*domain.NoteAccess, error)
	HasValidGrant(ctx context.Context, studentID, noteID int64) (bool, error)
}
