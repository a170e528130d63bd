package payment

import (
	"context"
	"time"

	"elearn/internal/domain"
)

type bookingStore interface {
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	SaveOrderID(ctx context.Context, bookingID int64, orderID string) error
	MarkPaid(ctx context.Context, bookingID int64, orderID, paymentID, signature string, paidAt time.Time, expiry *time.Time) error
	MarkFailed(ctx context.Context, bookingID int64) error
}

type historyStore interface {
	HasOutcome(ctx context.Context, paymentID string, status domain.PaymentHistoryStatus) (bool, error)
	Append(ctx context.Context, h *domain.PaymentHistory) error
	CountByBooking(ctx context.Context, bookingID int64) (int64, error)
}

// bookingReissuer supersedes a terminal booking with a fresh pending one
// priced at the current product price. Implemented by the booking
// service.
type bookingReissuer interface {
	RepriceAndReissue(ctx context.Context, old *domain.Booking) (*domain.Booking, error)
}

// accessGranter hands out course-derived note entitlements after a
// successful payment. Implemented by the access service.
type accessGranter interface {
	GrantFromBooking(ctx context.Context, b *domain.Booking) error
}

// notePurchaseProcessor settles note purchases arriving over the
// webhook. Implemented by the notes service.
type notePurchaseProcessor interface {
	ApplyGatewaySuccess(ctx context.Context, orderID, paymentID, signature string) error
	ApplyGatewayFailure(ctx context.Context, orderID string) error
}
