package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"elearn/internal/domain"
	"elearn/internal/pkg/gateway"
	"elearn/internal/repository"

	"gorm.io/gorm"
)

const orderCurrency = "INR"

// Service reconciles gateway outcomes with the booking ledger. Both
// entry paths, the client checkout callback and the server-to-server
// webhook, converge on the same success/failure application so a
// payment observed twice settles exactly once.
type Service struct {
	bookings bookingStore
	history  historyStore
	gw       gateway.Gateway
	reissue  bookingReissuer
	access   accessGranter
	notes    notePurchaseProcessor
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

func NewService(bookings bookingStore, history historyStore, gw gateway.Gateway, reissue bookingReissuer, access accessGranter, notes notePurchaseProcessor, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		bookings: bookings,
		history:  history,
		gw:       gw,
		reissue:  reissue,
		access:   access,
		notes:    notes,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// PaymentInitData prepares the public payment page. A paid booking
// short-circuits to its status; a terminal (expired/refunded) booking is
// superseded by a fresh pending one at the current price. Every call on
// a payable booking opens a fresh gateway order, so a retried checkout
// can never complete against a stale amount.
func (s *Service) PaymentInitData(ctx context.Context, ref string) (*InitDataResponse, error) {
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if b.PaymentStatus == domain.PaymentPaid {
		return &InitDataResponse{
			BookingRef:    b.BookingRef,
			CourseName:    b.CourseName,
			Amount:        b.FinalAmount,
			PaymentStatus: string(b.PaymentStatus),
			AlreadyPaid:   true,
		}, nil
	}

	if b.PaymentStatus.Terminal() {
		b, err = s.reissue.RepriceAndReissue(ctx, b)
		if err != nil {
			return nil, err
		}
	}

	order, err := s.gw.CreateOrder(ctx, b.FinalAmount, orderCurrency, b.BookingRef, map[string]interface{}{
		"booking_ref": b.BookingRef,
		"type":        "course_booking",
	})
	if err != nil {
		return nil, err
	}
	if err := s.bookings.SaveOrderID(ctx, b.ID, order.ID); err != nil {
		return nil, err
	}

	resp := &InitDataResponse{
		BookingRef:    b.BookingRef,
		CourseName:    b.CourseName,
		Amount:        b.FinalAmount,
		Currency:      order.Currency,
		OrderID:       order.ID,
		KeyID:         s.gw.KeyID(),
		PaymentStatus: string(domain.PaymentPending),
	}
	if b.Student != nil {
		resp.StudentName = b.Student.FullName()
		resp.StudentEmail = b.Student.Email
		resp.StudentPhone = b.Student.Phone
	}
	return resp, nil
}

// VerifyClientPayment settles the checkout callback. A bad signature
// leaves a durable failed ledger row and marks the booking failed; a
// good one runs the convergent success path.
func (s *Service) VerifyClientPayment(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	b, err := s.bookings.GetByRef(ctx, req.BookingRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !s.gw.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.applyFailure(ctx, b, req.RazorpayOrderID, req.RazorpayPaymentID); err != nil {
			return nil, err
		}
		return nil, ErrSignature
	}

	return s.applySuccess(ctx, b, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
}

// Status is the public payment-status poll.
func (s *Service) Status(ctx context.Context, ref string) (*StatusResponse, error) {
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	attempts, err := s.history.CountByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		BookingRef:    b.BookingRef,
		PaymentStatus: string(b.PaymentStatus),
		Attempts:      attempts,
	}, nil
}

// applySuccess is the convergent success path. The ledger is the
// idempotency guard: an existing paid row for this gateway payment id
// makes the whole call a no-op, and the composite unique index turns
// the check-then-insert race into a duplicate instead of a double
// settlement.
func (s *Service) applySuccess(ctx context.Context, b *domain.Booking, orderID, paymentID, signature string) (*VerifyResponse, error) {
	seen, err := s.history.HasOutcome(ctx, paymentID, domain.HistoryPaid)
	if err != nil {
		return nil, err
	}
	if seen {
		return &VerifyResponse{BookingRef: b.BookingRef, PaymentStatus: string(domain.PaymentPaid), Duplicate: true}, nil
	}

	row := &domain.PaymentHistory{
		BookingID:             b.ID,
		CourseName:            b.CourseName,
		Amount:                b.FinalAmount,
		RazorpayOrderID:       orderID,
		RazorpayPaymentID:     paymentID,
		RazorpaySignature:     signature,
		Status:                domain.HistoryPaid,
		SalesRepresentativeID: b.SalesRepresentativeID,
	}
	if err := s.history.Append(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDuplicateOutcome) {
			return &VerifyResponse{BookingRef: b.BookingRef, PaymentStatus: string(domain.PaymentPaid), Duplicate: true}, nil
		}
		return nil, err
	}

	paidAt := s.now()
	expiry := courseExpiry(b.Product, paidAt)
	if err := s.bookings.MarkPaid(ctx, b.ID, orderID, paymentID, signature, paidAt, expiry); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=payment settled booking_ref=%s payment_id=%s amount=%.2f", b.BookingRef, paymentID, b.FinalAmount)

	if b.CourseExpiryDate == nil {
		b.CourseExpiryDate = expiry
	}
	b.PaymentStatus = domain.PaymentPaid

	// Entitlements follow the payment; a grant hiccup must not undo a
	// settled charge.
	if err := s.access.GrantFromBooking(ctx, b); err != nil {
		s.loggerf("level=error msg=course access grant failed booking_ref=%s err=%v", b.BookingRef, err)
	}

	return &VerifyResponse{
		BookingRef:       b.BookingRef,
		PaymentStatus:    string(domain.PaymentPaid),
		CourseExpiryDate: expiry,
	}, nil
}

// applyFailure records a failed attempt. Deduped per payment id, and a
// booking that already succeeded is never downgraded. The price
// snapshot stays untouched so the booking remains re-attemptable.
func (s *Service) applyFailure(ctx context.Context, b *domain.Booking, orderID, paymentID string) error {
	row := &domain.PaymentHistory{
		BookingID:             b.ID,
		CourseName:            b.CourseName,
		Amount:                b.FinalAmount,
		RazorpayOrderID:       orderID,
		RazorpayPaymentID:     paymentID,
		Status:                domain.HistoryFailed,
		SalesRepresentativeID: b.SalesRepresentativeID,
	}
	if err := s.history.Append(ctx, row); err != nil && !errors.Is(err, repository.ErrDuplicateOutcome) {
		return err
	}
	if b.PaymentStatus == domain.PaymentPaid {
		return nil
	}
	return s.bookings.MarkFailed(ctx, b.ID)
}

// webhookEvent is the slice of the gateway notification we act on.
// Notes arrive as an object when set and as an empty array otherwise,
// so they are decoded tolerantly.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string          `json:"id"`
				OrderID string          `json:"order_id"`
				Notes   json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook settles a server-to-server notification. The signature
// is verified against the raw body before a single payload field is
// read. Everything past the signature is acknowledged, success or not,
// so transient problems do not turn into gateway retry storms; the
// returned error is non-nil only for a signature failure.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookAck, error) {
	if !s.gw.VerifyWebhookSignature(body, signature) {
		return nil, ErrSignature
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.loggerf("level=warn msg=webhook body unparseable err=%v", err)
		return &WebhookAck{Status: "ignored", Reason: "unparseable payload"}, nil
	}

	entity := ev.Payload.Payment.Entity
	notes := parseNotes(entity.Notes)

	switch ev.Event {
	case "payment.captured", "order.paid":
		return s.webhookSuccess(ctx, entity.ID, entity.OrderID, signature, notes), nil
	case "payment.failed":
		return s.webhookFailure(ctx, entity.ID, entity.OrderID, notes), nil
	default:
		return &WebhookAck{Status: "ignored", Reason: "unhandled event: " + ev.Event}, nil
	}
}

func (s *Service) webhookSuccess(ctx context.Context, paymentID, orderID, signature string, notes map[string]string) *WebhookAck {
	if notes["type"] == "note_purchase" {
		if err := s.notes.ApplyGatewaySuccess(ctx, orderID, paymentID, signature); err != nil {
			s.loggerf("level=error msg=webhook note settlement failed order_id=%s err=%v", orderID, err)
			return &WebhookAck{Status: "error", Reason: "note purchase settlement failed"}
		}
		return &WebhookAck{Status: "ok"}
	}

	ref := notes["booking_ref"]
	if ref == "" {
		return &WebhookAck{Status: "ignored", Reason: "no booking reference in notes"}
	}
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=webhook for unknown booking booking_ref=%s payment_id=%s", ref, paymentID)
			return &WebhookAck{Status: "ignored", Reason: "unknown booking"}
		}
		s.loggerf("level=error msg=webhook booking lookup failed booking_ref=%s err=%v", ref, err)
		return &WebhookAck{Status: "error", Reason: "lookup failed"}
	}
	if _, err := s.applySuccess(ctx, b, orderID, paymentID, signature); err != nil {
		s.loggerf("level=error msg=webhook settlement failed booking_ref=%s err=%v", ref, err)
		return &WebhookAck{Status: "error", Reason: "settlement failed"}
	}
	return &WebhookAck{Status: "ok"}
}

func (s *Service) webhookFailure(ctx context.Context, paymentID, orderID string, notes map[string]string) *WebhookAck {
	if notes["type"] == "note_purchase" {
		if err := s.notes.ApplyGatewayFailure(ctx, orderID); err != nil {
			s.loggerf("level=error msg=webhook note failure handling failed order_id=%s err=%v", orderID, err)
			return &WebhookAck{Status: "error", Reason: "note purchase failure handling failed"}
		}
		return &WebhookAck{Status: "ok"}
	}

	ref := notes["booking_ref"]
	if ref == "" {
		return &WebhookAck{Status: "ignored", Reason: "no booking reference in notes"}
	}
	b, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &WebhookAck{Status: "ignored", Reason: "unknown booking"}
		}
		return &WebhookAck{Status: "error", Reason: "lookup failed"}
	}
	if err := s.applyFailure(ctx, b, orderID, paymentID); err != nil {
		s.loggerf("level=error msg=webhook failure handling failed booking_ref=%s err=%v", ref, err)
		return &WebhookAck{Status: "error", Reason: "failure handling failed"}
	}
	return &WebhookAck{Status: "ok"}
}

// courseExpiry derives the entitlement window from the product at the
// moment of the first successful payment; lifetime products yield nil.
// The repository only applies it when the column is still unset, so a
// replay never extends access.
func courseExpiry(p *domain.Product, paidAt time.Time) *time.Time {
	if p == nil || p.HasLifetimeAccess() {
		return nil
	}
	t := paidAt.AddDate(0, 0, *p.DurationDays)
	return &t
}

func parseNotes(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
