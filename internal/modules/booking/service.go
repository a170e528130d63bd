package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"elearn/internal/domain"
	"elearn/internal/pkg/validator"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	bookings bookingStore
	products productStore
	users    userStore
	offers   offerRedeemer
	ledger   ledgerStats
	pricing  priceQuoter
	loggerf  func(format string, args ...interface{})

	frontendURL string
}

func NewService(bookings bookingStore, products productStore, users userStore, offers offerRedeemer, ledger ledgerStats, pricing priceQuoter, frontendURL string, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		bookings:    bookings,
		products:    products,
		users:       users,
		offers:      offers,
		ledger:      ledger,
		pricing:     pricing,
		loggerf:     loggerf,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// PreviewPrice runs the pricing engine with nothing persisted. It is
// the same computation booking creation uses, so the number shown is
// the number charged.
func (s *Service) PreviewPrice(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	product, err := s.products.GetActiveByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	q, msgs, err := s.pricing.Preview(ctx, product, req.CouponCode, req.ManualPrice)
	if err != nil {
		return nil, err
	}

	return &PreviewResponse{
		EffectivePrice:        q.EffectivePrice,
		DiscountAmount:        q.CouponDiscount,
		ManualPrice:           q.ManualDiscount,
		FinalAmount:           q.FinalAmount,
		OfferMessage:          msgs.Coupon,
		ManualDiscountMessage: msgs.ManualDiscount,
		HasDiscount:           product.DiscountedPrice != nil,
		OriginalPrice:         product.Price,
		DiscountedPrice:       product.DiscountedPrice,
	}, nil
}

// CreateBooking prices the purchase, persists the immutable snapshot in
// pending status and hands back the record with its shareable payment
// link. Any pricing or lookup failure aborts before persistence.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest, actor Actor) (*domain.Booking, error) {
	role := domain.UserRole(actor.Role)

	var student *domain.User
	switch {
	case role.CanManageBookings():
		var err error
		student, err = s.resolveStudent(ctx, req)
		if err != nil {
			return nil, err
		}
	case role == domain.RoleStudent:
		// buyer-facing flow: a student books for themselves, at list
		// pricing only
		if req.ManualPrice > 0 {
			return nil, ErrForbidden
		}
		student = &domain.User{ID: actor.UserID, Role: domain.RoleStudent}
	default:
		return nil, ErrForbidden
	}

	product, err := s.products.GetActiveByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, product, req.CouponCode, req.ManualPrice, actor.AllowManualPrice)
	if err != nil {
		return nil, err
	}

	salesRepID := actor.UserID
	b := &domain.Booking{
		BookingRef:            uuid.NewString(),
		StudentID:             student.ID,
		ProductID:             product.ID,
		CourseName:            product.Name,
		Price:                 quote.EffectivePrice,
		CouponDiscount:        quote.CouponDiscount,
		ManualDiscount:        quote.ManualDiscount,
		FinalAmount:           quote.FinalAmount,
		PaymentStatus:         domain.PaymentPending,
		StudentStatus:         domain.StudentInProcess,
		SalesRepresentativeID: &salesRepID,
		BookedBy:              actor.Name,
	}
	if quote.Offer != nil {
		b.OfferID = &quote.Offer.ID
	}
	b.PaymentLink = s.paymentLink(b.BookingRef)

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	// Redemption counts at creation time: an abandoned pending booking
	// keeps the usage slot. A lost race on the cap is logged, not
	// unwound, since the booking is already priced.
	if quote.Offer != nil {
		ok, err := s.offers.IncrementUsage(ctx, quote.Offer.ID)
		if err != nil {
			s.loggerf("level=error msg=coupon usage increment failed offer_id=%d booking_ref=%s err=%v", quote.Offer.ID, b.BookingRef, err)
		} else if !ok {
			s.loggerf("level=warn msg=coupon usage cap reached after validation offer_id=%d booking_ref=%s", quote.Offer.ID, b.BookingRef)
		}
	}

	return b, nil
}

// ExpirePaymentLink invalidates a shareable link. Only an admin or the
// seller who owns the sale may do it; a link that is already expired is
// rejected rather than silently accepted.
func (s *Service) ExpirePaymentLink(ctx context.Context, ref string, actor Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	role := domain.UserRole(actor.Role)
	if !role.CanManageBookings() {
		return nil, ErrForbidden
	}
	if role == domain.RoleSeller &&
		(b.SalesRepresentativeID == nil || *b.SalesRepresentativeID != actor.UserID) {
		return nil, ErrForbidden
	}

	if b.PaymentStatus == domain.PaymentExpired {
		return nil, ErrAlreadyExpired
	}

	changed, err := s.bookings.Expire(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// raced with another expire call
		return nil, ErrAlreadyExpired
	}

	b.PaymentStatus = domain.PaymentExpired
	b.PaymentLink = ""
	return b, nil
}

// RepriceAndReissue is the retry transition for stale payment links:
// when a link's booking is already in a terminal state, the student's
// open pending booking for the product is reused, or a fresh one is
// created at the CURRENT product price. The old record is left alone;
// a stale link can never complete at an outdated price.
func (s *Service) RepriceAndReissue(ctx context.Context, old *domain.Booking) (*domain.Booking, error) {
	pending, err := s.bookings.FindPending(ctx, old.StudentID, old.ProductID)
	if err == nil {
		return pending, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product, err := s.products.GetActiveByID(ctx, old.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// no coupon or manual discount carries over to the reissue
	quote, err := s.pricing.Quote(ctx, product, "", 0, false)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		BookingRef:            uuid.NewString(),
		StudentID:             old.StudentID,
		ProductID:             product.ID,
		CourseName:            product.Name,
		Price:                 quote.EffectivePrice,
		FinalAmount:           quote.FinalAmount,
		PaymentStatus:         domain.PaymentPending,
		StudentStatus:         domain.StudentInProcess,
		SalesRepresentativeID: old.SalesRepresentativeID,
		BookedBy:              old.BookedBy,
	}
	b.PaymentLink = s.paymentLink(b.BookingRef)

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=booking reissued old_ref=%s new_ref=%s final_amount=%.2f", old.BookingRef, b.BookingRef, b.FinalAmount)
	return b, nil
}

// Statistics aggregates bookings and the payment ledger for the
// dashboard, scoped to what the caller may see. Revenue comes from the
// ledger, never from booking status.
func (s *Service) Statistics(ctx context.Context, actor Actor) (*StatisticsResponse, error) {
	var studentID, salesRepID int64
	switch domain.UserRole(actor.Role) {
	case domain.RoleAdmin:
	case domain.RoleSeller:
		salesRepID = actor.UserID
	case domain.RoleStudent:
		studentID = actor.UserID
	default:
		return nil, ErrForbidden
	}

	counts, err := s.bookings.CountByScope(ctx, studentID, salesRepID)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.TotalsByScope(ctx, studentID, salesRepID)
	if err != nil {
		return nil, err
	}

	return &StatisticsResponse{
		TotalBookings:         counts.Total,
		PaidBookings:          counts.Paid,
		PendingBookings:       counts.Pending,
		SuccessfulPayments:    totals.SuccessfulPayments,
		FailedPaymentAttempts: totals.FailedAttempts,
		TotalRevenue:          totals.TotalRevenue,
		TotalSales:            totals.SuccessfulPayments + counts.Pending,
	}, nil
}

func (s *Service) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// resolveStudent finds the student for a seller-assisted booking,
// provisioning the account when the email is new.
func (s *Service) resolveStudent(ctx context.Context, req CreateBookingRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, ErrValidation
	}

	student, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if student.Role != domain.RoleStudent {
			return nil, ErrNotAStudent
		}
		return student, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if req.Password == "" || req.StudentName == "" {
		return nil, ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	first, last := splitName(req.StudentName)
	student = &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleStudent,
		FirstName:    first,
		LastName:     last,
		Phone:        req.Phone,
		State:        req.State,
	}
	if errs := validator.Validate(student); errs != nil {
		return nil, fmt.Errorf("%w: invalid student data: %v", ErrValidation, errs)
	}
	if err := s.users.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *Service) paymentLink(ref string) string {
	return s.frontendURL + "/public-payment/" + ref
}

func splitName(full string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
