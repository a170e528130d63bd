package booking

// Actor identifies the authenticated caller of a booking operation,
// as extracted from the JWT claims.
type Actor struct {
	UserID           int64
	Role             string
	Name             string
	AllowManualPrice bool
}

type CreateBookingRequest struct {
	ProductID   int64   `json:"product" binding:"required"`
	CouponCode  string  `json:"coupon_code"`
	ManualPrice float64 `json:"manual_price"`

	// Seller-assisted flow: the student the booking is created for,
	// provisioned on the fly when the email is unknown.
	Email       string `json:"email"`
	StudentName string `json:"student_name"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	State       string `json:"state"`
}

type PreviewRequest struct {
	ProductID   int64   `json:"product" binding:"required"`
	CouponCode  string  `json:"coupon_code"`
	ManualPrice float64 `json:"manual_price"`
}

type PreviewResponse struct {
	EffectivePrice        float64  `json:"effective_price"`
	DiscountAmount        float64  `json:"discount_amount"`
	ManualPrice           float64  `json:"manual_price"`
	FinalAmount           float64  `json:"final_amount"`
	OfferMessage          string   `json:"offer_message,omitempty"`
	ManualDiscountMessage string   `json:"manual_discount_message,omitempty"`
	HasDiscount           bool     `json:"has_discount"`
	OriginalPrice         float64  `json:"original_price"`
	DiscountedPrice       *float64 `json:"discounted_price,omitempty"`
}

type ExpireLinkRequest struct {
	BookingRef string `json:"booking_ref" binding:"required"`
}

type StatisticsResponse struct {
	TotalBookings         int64   `json:"total_bookings"`
	PaidBookings          int64   `json:"paid_bookings"`
	PendingBookings       int64   `json:"pending_bookings"`
	SuccessfulPayments    int64   `json:"successful_payments"`
	FailedPaymentAttempts int64   `json:"failed_payment_attempts"`
	TotalRevenue          float64 `json:"total_revenue"`
	TotalSales            int64   `json:"total_sales"`
}
