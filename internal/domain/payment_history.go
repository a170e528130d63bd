package domain

import "time"

type PaymentHistoryStatus string

const (
	HistoryPaid   PaymentHistoryStatus = "paid"
	HistoryFailed PaymentHistoryStatus = "failed"
)

// PaymentHistory is the append-only reconciliation ledger: one row per
// gateway verification outcome. Rows are never updated or deleted; the
// composite unique index on (razorpay_payment_id, status) is what makes
// the check-then-insert idempotency guard race-free.
type PaymentHistory struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	BookingID  int64  `gorm:"index;not null" json:"booking_id"`
	CourseName string `gorm:"size:200" json:"course_name"`

	Amount float64 `json:"amount"`

	RazorpayOrderID   string               `gorm:"size:100" json:"razorpay_order_id"`
	RazorpayPaymentID string               `gorm:"size:100;uniqueIndex:idx_payment_outcome,priority:1" json:"razorpay_payment_id"`
	RazorpaySignature string               `gorm:"size:200" json:"-"`
	Status            PaymentHistoryStatus `gorm:"size:10;uniqueIndex:idx_payment_outcome,priority:2" json:"status"`

	SalesRepresentativeID *int64 `gorm:"index" json:"sales_representative_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Booking *Booking `json:"-" gorm:"foreignKey:BookingID"`
}

func (PaymentHistory) TableName() string { return "payment_histories" }
