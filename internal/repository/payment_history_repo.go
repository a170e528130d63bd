package repository

import (
	"context"
	"errors"
	"strings"

	"elearn/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateOutcome is returned when a ledger row for the same
// (gateway payment id, status) pair already exists. Callers treat it as
// "already processed", not as a failure.
var ErrDuplicateOutcome = errors.New("payment outcome already recorded")

type PaymentHistoryRepository struct {
	db *gorm.DB
}

func NewPaymentHistoryRepository(db *gorm.DB) *PaymentHistoryRepository {
	return &PaymentHistoryRepository{db: db}
}

// Append inserts a ledger row. The unique index on
// (razorpay_payment_id, status) turns a concurrent duplicate into
// ErrDuplicateOutcome instead of a second row.
func (r *PaymentHistoryRepository) Append(ctx context.Context, h *domain.PaymentHistory) error {
	err := r.db.WithContext(ctx).Create(h).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateOutcome
	}
	return err
}

// HasOutcome is the cheap pre-check of the idempotency guard; Append's
// unique index backstops the race between check and insert.
func (r *PaymentHistoryRepository) HasOutcome(ctx context.Context, paymentID string, status domain.PaymentHistoryStatus) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.PaymentHistory{}).
		Where("razorpay_payment_id = ? AND status = ?", paymentID, status).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *PaymentHistoryRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentHistory, error) {
	var rows []domain.PaymentHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *PaymentHistoryRepository) CountByBooking(ctx context.Context, bookingID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.PaymentHistory{}).
		Where("booking_id = ?", bookingID).
		Count(&cnt).Error
	return cnt, err
}

// LedgerTotals aggregates the ledger, the sole source of truth for
// revenue. Zero-valued scope fields mean "no filter".
type LedgerTotals struct {
	SuccessfulPayments int64
	FailedAttempts     int64
	TotalRevenue       float64
}

func (r *PaymentHistoryRepository) TotalsByScope(ctx context.Context, studentID, salesRepID int64) (LedgerTotals, error) {
	var out LedgerTotals

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.PaymentHistory{}).
			Joins("JOIN bookings ON bookings.id = payment_histories.booking_id")
		if studentID != 0 {
			q = q.Where("bookings.student_id = ?", studentID)
		}
		if salesRepID != 0 {
			q = q.Where("bookings.sales_representative_id = ?", salesRepID)
		}
		return q
	}

	if err := base().Where("payment_histories.status = ?", domain.HistoryPaid).
		Count(&out.SuccessfulPayments).Error; err != nil {
		return out, err
	}
	if err := base().Where("payment_histories.status = ?", domain.HistoryFailed).
		Count(&out.FailedAttempts).Error; err != nil {
		return out, err
	}
	var revenue *float64
	err := base().Where("payment_histories.status = ?", domain.HistoryPaid).
		Select("SUM(payment_histories.amount)").
		Scan(&revenue).Error
	if err != nil {
		return out, err
	}
	if revenue != nil {
		out.TotalRevenue = *revenue
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite (local/dev runs)
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
