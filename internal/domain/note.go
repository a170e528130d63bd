package domain

import "time"

type NoteType string

const (
	NoteCourseSpecific NoteType = "course_specific"
	NoteIndividual     NoteType = "individual"
)

type NotePrivacy string

const (
	NotePublic       NotePrivacy = "public"
	NoteLoggedIn     NotePrivacy = "logged_in"
	NotePurchaseable NotePrivacy = "purchaseable"
)

// Note is sellable study material. Course-specific notes follow the
// owning product's enrollment; individual notes follow their privacy
// setting.
type Note struct {
	ID        int64       `gorm:"primaryKey" json:"id"`
	Title     string      `gorm:"size:255" json:"title"`
	Slug      string      `gorm:"uniqueIndex;size:255" json:"slug,omitempty"`
	CreatorID int64       `gorm:"index;not null" json:"creator_id"`
	NoteType  NoteType    `gorm:"size:20;default:'individual'" json:"note_type"`
	Privacy   NotePrivacy `gorm:"size:20;default:'logged_in'" json:"privacy"`
	ProductID *int64      `gorm:"index" json:"product_id,omitempty"`

	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`

	// Days of access after purchase; 0 = lifetime. Note: paid
	// purchases are currently forced to lifetime regardless (see
	// NotePurchase), so this only affects non-purchase grants.
	AccessDurationDays int `json:"access_duration_days"`

	Description string `gorm:"type:text" json:"description,omitempty"`
	IsDraft     bool   `json:"is_draft"`
	IsActive    bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator *User    `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (n *Note) EffectivePrice() float64 {
	if n.DiscountedPrice != nil {
		return *n.DiscountedPrice
	}
	return n.Price
}

// NotePurchase mirrors Booking for the notes marketplace: one row per
// student+note with an immutable price snapshot.
type NotePurchase struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	PurchaseRef string `gorm:"uniqueIndex;size:36;not null" json:"purchase_ref"`

	StudentID int64 `gorm:"uniqueIndex:idx_student_note;not null" json:"student_id"`
	NoteID    int64 `gorm:"uniqueIndex:idx_student_note;not null" json:"note_id"`

	Price          float64 `json:"price"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`

	PaymentStatus PaymentStatus `gorm:"size:20;default:'pending';index" json:"payment_status"`
	PaymentLink   string        `gorm:"type:text" json:"payment_link,omitempty"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`

	RazorpayOrderID   string `gorm:"size:100;index" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `gorm:"size:100;index" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `gorm:"size:200" json:"-"`

	// nil = lifetime. Forced to nil whenever the purchase is paid:
	// purchased notes never expire even when the note configures a
	// duration.
	AccessValidUntil *time.Time `json:"access_valid_until,omitempty"`

	PurchasedBy string `gorm:"size:200" json:"purchased_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Note    *Note `json:"note,omitempty" gorm:"foreignKey:NoteID"`
}

func (NotePurchase) TableName() string { return "note_purchases" }

// AccessValid reports whether this purchase currently entitles the
// student to the note.
func (p *NotePurchase) AccessValid(now time.Time) bool {
	if p.PaymentStatus != PaymentPaid {
		return false
	}
	if p.AccessValidUntil == nil {
		return true
	}
	return !now.After(*p.AccessValidUntil)
}

type AccessType string

const (
	AccessPurchase       AccessType = "purchase"
	AccessCourseBooking  AccessType = "course_booking"
	AccessManual         AccessType = "manual"
	AccessFreeEnrollment AccessType = "free_enrollment"
)

// NoteAccess is an entitlement record, independent of the payment that
// caused it. Deactivated instead of deleted so history survives.
type NoteAccess struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	StudentID  int64      `gorm:"uniqueIndex:idx_access_grant;not null" json:"student_id"`
	NoteID     int64      `gorm:"uniqueIndex:idx_access_grant;not null" json:"note_id"`
	AccessType AccessType `gorm:"size:20;uniqueIndex:idx_access_grant;default:'manual'" json:"access_type"`

	PurchaseID *int64 `gorm:"index" json:"purchase_id,omitempty"`
	BookingID  *int64 `gorm:"index" json:"booking_id,omitempty"`

	ValidUntil *time.Time `json:"valid_until,omitempty"` // nil = lifetime
	IsActive   bool       `json:"is_active"`

	GrantedByID *int64 `json:"granted_by_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Note    *Note `json:"note,omitempty" gorm:"foreignKey:NoteID"`
}

func (NoteAccess) TableName() string { return "note_accesses" }

// Valid reports whether the grant is active and unexpired.
func (a *NoteAccess) Valid(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ValidUntil == nil {
		return true
	}
	return !now.After(*a.ValidUntil)
}
