package payment

import "time"

// InitDataResponse is everything the public payment page needs to open
// the gateway checkout, or the short-circuit status when there is
// nothing left to pay.
type InitDataResponse struct {
	BookingRef    string  `json:"booking_ref"`
	CourseName    string  `json:"course_name,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	OrderID       string  `json:"order_id,omitempty"`
	KeyID         string  `json:"key_id,omitempty"`
	PaymentStatus string  `json:"payment_status"`
	AlreadyPaid   bool    `json:"already_paid"`

	// Checkout prefill.
	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
	StudentPhone string `json:"student_phone,omitempty"`
}

type VerifyRequest struct {
	BookingRef        string `json:"booking_ref" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type VerifyResponse struct {
	BookingRef       string     `json:"booking_ref"`
	PaymentStatus    string     `json:"payment_status"`
	Duplicate        bool       `json:"duplicate,omitempty"`
	CourseExpiryDate *time.Time `json:"course_expiry_date,omitempty"`
}

type StatusResponse struct {
	BookingRef    string `json:"booking_ref"`
	PaymentStatus string `json:"payment_status"`
	Attempts      int64  `json:"attempts"`
}

// WebhookAck is the body returned to the gateway. Anything that is not
// a signature failure is acknowledged so the gateway does not retry
// storms against us.
type WebhookAck struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
