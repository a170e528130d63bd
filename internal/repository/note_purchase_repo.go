package repository

import (
	"context"
	"time"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type NotePurchaseRepository struct {
	db *gorm.DB
}

func NewNotePurchaseRepository(db *gorm.DB) *NotePurchaseRepository {
	return &NotePurchaseRepository{db: db}
}

func (r *NotePurchaseRepository) Create(ctx context.Context, p *domain.NotePurchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *NotePurchaseRepository) Save(ctx context.Context, p *domain.NotePurchase) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *NotePurchaseRepository) GetByRef(ctx context.Context, ref string) (*domain.NotePurchase, error) {
	var p domain.NotePurchase
	err := r.db.WithContext(ctx).Preload("Note").Preload("Student").
		Where("purchase_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *NotePurchaseRepository) GetByStudentAndNote(ctx context.Context, studentID, noteID int64) (*domain.NotePurchase, error) {
	var p domain.NotePurchase
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND note_id = ?", studentID, noteID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *NotePurchaseRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.NotePurchase, error) {
	var p domain.NotePurchase
	err := r.db.WithContext(ctx).Preload("Note").
		Where("razorpay_order_id = ?", orderID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *NotePurchaseRepository) SaveOrderID(ctx context.Context, purchaseID int64, orderID string) error {
	return r.db.WithContext(ctx).Model(&domain.NotePurchase{}).
		Where("id = ?", purchaseID).
		Update("razorpay_order_id", orderID).Error
}

// MarkPaid transitions a purchase to paid exactly once; a second call
// for an already paid purchase affects zero rows and reports false.
// access_valid_until is forced to NULL: paid note purchases are
// lifetime by policy, whatever the note's configured duration says.
func (r *NotePurchaseRepository) MarkPaid(ctx context.Context, purchaseID int64, orderID, paymentID, signature string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.NotePurchase{}).
		Where("id = ? AND payment_status <> ?", purchaseID, domain.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status":      domain.PaymentPaid,
			"payment_date":        paidAt,
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"access_valid_until":  nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailedIfNotPaid records a failure without ever downgrading a
// purchase that already succeeded.
func (r *NotePurchaseRepository) MarkFailedIfNotPaid(ctx context.Context, purchaseID int64) error {
	return r.db.WithContext(ctx).Model(&domain.NotePurchase{}).
		Where("id = ? AND payment_status <> ?", purchaseID, domain.PaymentPaid).
		Update("payment_status", domain.PaymentFailed).Error
}
