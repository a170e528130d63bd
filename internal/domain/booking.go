package domain

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentExpired  PaymentStatus = "expired"
	PaymentRefunded PaymentStatus = "refunded"
)

// Terminal reports whether no further payment attempt may complete
// against this booking; a retry must go through a fresh pending one.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentExpired || s == PaymentRefunded
}

type StudentStatus string

const (
	StudentInProcess StudentStatus = "in_process"
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentCompleted StudentStatus = "completed"
	StudentCancelled StudentStatus = "cancelled"
)

// Booking is a priced purchase intent for a course. The price snapshot
// (Price, CouponDiscount, ManualDiscount, FinalAmount) is written once
// at creation and never mutated afterwards; retries supersede the row
// with a fresh booking instead of repricing it.
type Booking struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	// Shareable opaque reference used in payment links and gateway
	// metadata. Distinct from the internal sequence id.
	BookingRef string `gorm:"uniqueIndex;size:36;not null" json:"booking_ref"`

	StudentID  int64  `gorm:"index;not null" json:"student_id"`
	ProductID  int64  `gorm:"index;not null" json:"product_id"`
	CourseName string `gorm:"size:200" json:"course_name"`

	// Immutable price snapshot.
	Price          float64 `json:"price"`
	OfferID        *int64  `gorm:"index" json:"offer_id,omitempty"`
	CouponDiscount float64 `json:"coupon_discount"`
	ManualDiscount float64 `json:"manual_discount"`
	FinalAmount    float64 `json:"final_amount"`

	PaymentLink   string        `gorm:"type:text" json:"payment_link,omitempty"`
	PaymentStatus PaymentStatus `gorm:"size:20;default:'pending';index" json:"payment_status"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`

	// Gateway identifiers. PaymentID and Signature are written only
	// after a verified success.
	RazorpayOrderID   string `gorm:"size:100" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `gorm:"size:100;index" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `gorm:"size:200" json:"-"`

	// Set once on first successful payment from the product duration,
	// nil for lifetime products. Never recomputed on retries.
	CourseExpiryDate *time.Time `json:"course_expiry_date,omitempty"`

	StudentStatus StudentStatus `gorm:"size:20;default:'in_process'" json:"student_status"`

	SalesRepresentativeID *int64 `gorm:"index" json:"sales_representative_id,omitempty"`
	BookedBy              string `gorm:"size:200" json:"booked_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (Booking) TableName() string { return "bookings" }
