package notes

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"elearn/internal/domain"
	"elearn/internal/pkg/gateway"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orderCurrency = "INR"

// Service runs the purchasable-notes marketplace: initiating purchases,
// settling their payments and answering access checks. Paid purchases
// are lifetime by policy; the configured note duration only applies to
// non-purchase grants.
type Service struct {
	notes     noteStore
	purchases purchaseStore
	bookings  enrollmentChecker
	access    grantService
	gw        gateway.Gateway
	loggerf   func(format string, args ...interface{})
	now       func() time.Time

	frontendURL string
}

func NewService(notes noteStore, purchases purchaseStore, bookings enrollmentChecker, access grantService, gw gateway.Gateway, frontendURL string, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		notes:       notes,
		purchases:   purchases,
		bookings:    bookings,
		access:      access,
		gw:          gw,
		loggerf:     loggerf,
		now:         time.Now,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// InitiatePurchase opens (or reopens) a purchase for a student. One row
// exists per student+note: a retry after a failure reuses the row,
// re-priced at the current note price. Free notes settle immediately;
// paid notes get a payment link backed by a fresh gateway order.
func (s *Service) InitiatePurchase(ctx context.Context, req InitiatePurchaseRequest, actor Actor) (*PurchaseResponse, error) {
	if domain.UserRole(actor.Role) != domain.RoleStudent {
		return nil, ErrForbidden
	}

	note, err := s.notes.GetPurchasable(ctx, req.NoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	p, err := s.purchases.GetByStudentAndNote(ctx, actor.UserID, note.ID)
	switch {
	case err == nil:
		if p.AccessValid(s.now()) {
			return nil, ErrAlreadyOwned
		}
		// reopen the row at the current price
		p.Price = note.Price
		p.DiscountAmount = note.Price - note.EffectivePrice()
		p.FinalAmount = note.EffectivePrice()
		p.PaymentStatus = domain.PaymentPending
		p.PaymentLink = s.purchaseLink(p.PurchaseRef)
		if err := s.purchases.Save(ctx, p); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &domain.NotePurchase{
			PurchaseRef:    uuid.NewString(),
			StudentID:      actor.UserID,
			NoteID:         note.ID,
			Price:          note.Price,
			DiscountAmount: note.Price - note.EffectivePrice(),
			FinalAmount:    note.EffectivePrice(),
			PaymentStatus:  domain.PaymentPending,
			PurchasedBy:    actor.Name,
		}
		p.PaymentLink = s.purchaseLink(p.PurchaseRef)
		if err := s.purchases.Create(ctx, p); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	p.Note = note

	if p.FinalAmount == 0 {
		return s.settleFree(ctx, p, note)
	}

	if _, err := s.openOrder(ctx, p); err != nil {
		return nil, err
	}
	return &PurchaseResponse{
		PurchaseRef:   p.PurchaseRef,
		NoteTitle:     note.Title,
		Price:         p.Price,
		FinalAmount:   p.FinalAmount,
		PaymentStatus: string(domain.PaymentPending),
		PaymentLink:   p.PaymentLink,
	}, nil
}

// settleFree completes a zero-amount purchase on the spot: no gateway
// round-trip. Free enrollments honor the note's configured access
// duration; only money buys lifetime access.
func (s *Service) settleFree(ctx context.Context, p *domain.NotePurchase, note *domain.Note) (*PurchaseResponse, error) {
	paidAt := s.now()
	changed, err := s.purchases.MarkPaid(ctx, p.ID, "", "", "", paidAt)
	if err != nil {
		return nil, err
	}
	if changed {
		p.PaymentStatus = domain.PaymentPaid
		p.PaymentDate = &paidAt
		grant, err := s.access.GrantFreeEnrollment(ctx, p.StudentID, note.ID)
		if err != nil {
			s.loggerf("level=error msg=free note grant failed purchase_ref=%s err=%v", p.PurchaseRef, err)
		} else if grant.ValidUntil != nil {
			// MarkPaid nulled the window; a free enrollment keeps the
			// note's duration so the row must say when it lapses
			p.AccessValidUntil = grant.ValidUntil
			if err := s.purchases.Save(ctx, p); err != nil {
				s.loggerf("level=error msg=free note window save failed purchase_ref=%s err=%v", p.PurchaseRef, err)
			}
		}
	}
	return &PurchaseResponse{
		PurchaseRef:   p.PurchaseRef,
		NoteTitle:     note.Title,
		Price:         p.Price,
		FinalAmount:   0,
		PaymentStatus: string(domain.PaymentPaid),
	}, nil
}

// PaymentInitData prepares the public purchase checkout page; every
// call on an unpaid purchase opens a fresh gateway order.
func (s *Service) PaymentInitData(ctx context.Context, ref string) (*InitDataResponse, error) {
	p, err := s.purchases.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}

	resp := &InitDataResponse{
		PurchaseRef:   p.PurchaseRef,
		Amount:        p.FinalAmount,
		PaymentStatus: string(p.PaymentStatus),
	}
	if p.Note != nil {
		resp.NoteTitle = p.Note.Title
	}
	if p.PaymentStatus == domain.PaymentPaid {
		resp.AlreadyPaid = true
		return resp, nil
	}

	order, err := s.openOrder(ctx, p)
	if err != nil {
		return nil, err
	}
	resp.OrderID = order.ID
	resp.Currency = order.Currency
	resp.KeyID = s.gw.KeyID()
	if p.Student != nil {
		resp.StudentName = p.Student.FullName()
		resp.StudentEmail = p.Student.Email
	}
	return resp, nil
}

// VerifyClientPayment settles the checkout callback for a purchase.
// Idempotent: the conditional paid transition makes a replay a no-op,
// and a failure never downgrades a purchase that already succeeded.
func (s *Service) VerifyClientPayment(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	p, err := s.purchases.GetByRef(ctx, req.PurchaseRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}

	if !s.gw.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.purchases.MarkFailedIfNotPaid(ctx, p.ID); err != nil {
			return nil, err
		}
		return nil, ErrSignature
	}

	changed, err := s.settle(ctx, p, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{
		PurchaseRef:   p.PurchaseRef,
		PaymentStatus: string(domain.PaymentPaid),
		Duplicate:     !changed,
	}, nil
}

// ApplyGatewaySuccess settles a webhook-delivered success, correlated
// by gateway order id. An unknown order is logged and swallowed so the
// gateway gets its ack.
func (s *Service) ApplyGatewaySuccess(ctx context.Context, orderID, paymentID, signature string) error {
	p, err := s.purchases.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.loggerf("level=warn msg=webhook for unknown note order order_id=%s payment_id=%s", orderID, paymentID)
			return nil
		}
		return err
	}
	_, err = s.settle(ctx, p, orderID, paymentID, signature)
	return err
}

// ApplyGatewayFailure records a webhook-delivered failure.
func (s *Service) ApplyGatewayFailure(ctx context.Context, orderID string) error {
	p, err := s.purchases.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.purchases.MarkFailedIfNotPaid(ctx, p.ID)
}

// settle is the convergent success path for both entries. The
// conditional paid transition is the idempotency guard; the grant fires
// only on the transition, and a paid purchase is lifetime regardless of
// the note's configured duration.
func (s *Service) settle(ctx context.Context, p *domain.NotePurchase, orderID, paymentID, signature string) (bool, error) {
	changed, err := s.purchases.MarkPaid(ctx, p.ID, orderID, paymentID, signature, s.now())
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	p.PaymentStatus = domain.PaymentPaid
	p.AccessValidUntil = nil
	s.loggerf("level=info msg=note purchase settled purchase_ref=%s payment_id=%s amount=%.2f", p.PurchaseRef, paymentID, p.FinalAmount)
	if err := s.access.GrantFromPurchase(ctx, p); err != nil {
		s.loggerf("level=error msg=note access grant failed purchase_ref=%s err=%v", p.PurchaseRef, err)
	}
	return true, nil
}

// CanAccess decides whether the caller may read a note. Drafts and
// inactive notes are visible to their creator and admins only;
// course-specific notes follow the course enrollment (or an explicit
// grant); otherwise the note's privacy setting rules.
func (s *Service) CanAccess(ctx context.Context, noteID int64, actor Actor) (*AccessDecision, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	role := domain.UserRole(actor.Role)
	if role == domain.RoleAdmin || actor.UserID == note.CreatorID {
		return &AccessDecision{Allowed: true}, nil
	}
	if note.IsDraft || !note.IsActive {
		return &AccessDecision{Reason: "note is not published"}, nil
	}

	if note.NoteType == domain.NoteCourseSpecific && note.ProductID != nil {
		enrolled, err := s.bookings.HasActivePaidBooking(ctx, actor.UserID, *note.ProductID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return &AccessDecision{Allowed: true}, nil
		}
		granted, err := s.access.HasValidGrant(ctx, actor.UserID, note.ID)
		if err != nil {
			return nil, err
		}
		if granted {
			return &AccessDecision{Allowed: true}, nil
		}
		return &AccessDecision{Reason: "active course enrollment required"}, nil
	}

	switch note.Privacy {
	case domain.NotePublic:
		return &AccessDecision{Allowed: true}, nil
	case domain.NoteLoggedIn:
		if actor.UserID != 0 {
			return &AccessDecision{Allowed: true}, nil
		}
		return &AccessDecision{Reason: "login required"}, nil
	case domain.NotePurchaseable:
		granted, err := s.access.HasValidGrant(ctx, actor.UserID, note.ID)
		if err != nil {
			return nil, err
		}
		if granted {
			return &AccessDecision{Allowed: true}, nil
		}
		return &AccessDecision{Reason: "purchase required"}, nil
	default:
		return &AccessDecision{Reason: "access denied"}, nil
	}
}

// openOrder creates a fresh gateway order for the purchase and persists
// its id for webhook correlation.
func (s *Service) openOrder(ctx context.Context, p *domain.NotePurchase) (*gateway.Order, error) {
	order, err := s.gw.CreateOrder(ctx, p.FinalAmount, orderCurrency, p.PurchaseRef, map[string]interface{}{
		"purchase_id":  strconv.FormatInt(p.ID, 10),
		"purchase_ref": p.PurchaseRef,
		"type":         "note_purchase",
	})
	if err != nil {
		return nil, err
	}
	if err := s.purchases.SaveOrderID(ctx, p.ID, order.ID); err != nil {
		return nil, err
	}
	p.RazorpayOrderID = order.ID
	return order, nil
}

func (s *Service) purchaseLink(ref string) string {
	return s.frontendURL + "/public-note-payment/" + ref
}
