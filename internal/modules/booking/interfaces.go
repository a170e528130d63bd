package booking

import (
	"context"

	"elearn/internal/domain"
	"elearn/internal/modules/pricing"
	"elearn/internal/repository"
)

type bookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	FindPending(ctx context.Context, studentID, productID int64) (*domain.Booking, error)
	Expire(ctx context.Context, bookingID int64) (bool, error)
	CountByScope(ctx context.Context, studentID, salesRepID int64) (repository.BookingCounts, error)
}

type productStore interface {
	GetActiveByID(ctx context.Context, id int64) (*domain.Product, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type offerRedeemer interface {
	IncrementUsage(ctx context.Context, offerID int64) (bool, error)
}

type ledgerStats interface {
	TotalsByScope(ctx context.Context, studentID, salesRepID int64) (repository.LedgerTotals, error)
}

type priceQuoter interface {
	Quote(ctx context.Context, product *domain.Product, couponCode string, manualDiscount float64, canManualDiscount bool) (*pricing.Quote, error)
	Preview(ctx context.Context, product *domain.Product, couponCode string, manualDiscount float64) (*pricing.Quote, *pricing.PreviewMessages, error)
}
