package repository

import (
	"context"
	"time"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Preload("Product").First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Preload("Product").Preload("Student").
		Where("booking_ref = ?", ref).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Preload("Product").
		Where("razorpay_payment_id = ?", paymentID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindPending returns the student's open booking for a product, if any,
// so a retry can reuse it instead of piling up pending rows.
func (r *BookingRepository) FindPending(ctx context.Context, studentID, productID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Preload("Product").
		Where("student_id = ? AND product_id = ? AND payment_status = ?",
			studentID, productID, domain.PaymentPending).
		Order("created_at DESC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveOrderID persists a freshly created gateway order id. The gateway
// gives no idempotency, so the id is written immediately after creation.
func (r *BookingRepository) SaveOrderID(ctx context.Context, bookingID int64, orderID string) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ?", bookingID).
		Update("razorpay_order_id", orderID).Error
}

// MarkPaid flips the booking to paid and stamps the gateway ids. The
// course expiry and the in_process -> active transition are separate
// conditional updates so a duplicate success path can never extend an
// already granted entitlement.
func (r *BookingRepository) MarkPaid(ctx context.Context, bookingID int64, orderID, paymentID, signature string, paidAt time.Time, expiry *time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Booking{}).Where("id = ?", bookingID).
			Updates(map[string]interface{}{
				"payment_status":      domain.PaymentPaid,
				"payment_date":        paidAt,
				"razorpay_order_id":   orderID,
				"razorpay_payment_id": paymentID,
				"razorpay_signature":  signature,
			}).Error
		if err != nil {
			return err
		}
		if expiry != nil {
			err = tx.Model(&domain.Booking{}).
				Where("id = ? AND course_expiry_date IS NULL", bookingID).
				Update("course_expiry_date", *expiry).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&domain.Booking{}).
			Where("id = ? AND student_status = ?", bookingID, domain.StudentInProcess).
			Update("student_status", domain.StudentActive).Error
	})
}

// MarkFailed records a failed attempt without ever downgrading a
// booking that already succeeded.
func (r *BookingRepository) MarkFailed(ctx context.Context, bookingID int64) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND payment_status <> ?", bookingID, domain.PaymentPaid).
		Update("payment_status", domain.PaymentFailed).Error
}

// Expire closes a payment link. Conditional on the current status so a
// second expire call affects zero rows.
func (r *BookingRepository) Expire(ctx context.Context, bookingID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND payment_status <> ?", bookingID, domain.PaymentExpired).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentExpired,
			"payment_link":   "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasActivePaidBooking backs course-specific note access checks.
func (r *BookingRepository) HasActivePaidBooking(ctx context.Context, studentID, productID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("student_id = ? AND product_id = ? AND payment_status = ? AND student_status = ?",
			studentID, productID, domain.PaymentPaid, domain.StudentActive).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// BookingCounts holds the booking-side aggregates for the dashboard.
type BookingCounts struct {
	Total   int64
	Paid    int64
	Pending int64
}

// CountByScope aggregates bookings visible to the caller. Zero-valued
// scope fields mean "no filter".
func (r *BookingRepository) CountByScope(ctx context.Context, studentID, salesRepID int64) (BookingCounts, error) {
	var out BookingCounts

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Booking{})
		if studentID != 0 {
			q = q.Where("student_id = ?", studentID)
		}
		if salesRepID != 0 {
			q = q.Where("sales_representative_id = ?", salesRepID)
		}
		return q
	}

	if err := base().Count(&out.Total).Error; err != nil {
		return out, err
	}
	// paid = at least one successful ledger row, not the mutable status
	err := base().
		Where("id IN (?)", r.db.Model(&domain.PaymentHistory{}).
			Select("booking_id").Where("status = ?", domain.HistoryPaid)).
		Count(&out.Paid).Error
	if err != nil {
		return out, err
	}
	err = base().
		Where("payment_status <> ?", domain.PaymentExpired).
		Where("id NOT IN (?)", r.db.Model(&domain.PaymentHistory{}).
			Select("booking_id").Where("status = ?", domain.HistoryPaid)).
		Count(&out.Pending).Error
	if err != nil {
		return out, err
	}
	return out, nil
}
