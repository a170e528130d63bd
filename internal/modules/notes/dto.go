package notes

// Actor identifies the authenticated caller, as extracted from the JWT
// claims.
type Actor struct {
	UserID int64
	Role   string
	Name   string
}

type InitiatePurchaseRequest struct {
	NoteID int64 `json:"note" binding:"required"`
}

type PurchaseResponse struct {
	PurchaseRef   string  `json:"purchase_ref"`
	NoteTitle     string  `json:"note_title"`
	Price         float64 `json:"price"`
	FinalAmount   float64 `json:"final_amount"`
	PaymentStatus string  `json:"payment_status"`
	PaymentLink   string  `json:"payment_link,omitempty"`
}

// InitDataResponse is the public checkout payload for a purchase link.
type InitDataResponse struct {
	PurchaseRef   string  `json:"purchase_ref"`
	NoteTitle     string  `json:"note_title,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	OrderID       string  `json:"order_id,omitempty"`
	KeyID         string  `json:"key_id,omitempty"`
	PaymentStatus string  `json:"payment_status"`
	AlreadyPaid   bool    `json:"already_paid"`

	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
}

type VerifyRequest struct {
	PurchaseRef       string `json:"purchase_ref" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type VerifyResponse struct {
	PurchaseRef   string `json:"purchase_ref"`
	PaymentStatus string `json:"payment_status"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// AccessDecision is the verdict of a note access check.
type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
