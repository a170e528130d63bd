package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

// Hard business ceiling: a manual discount may never exceed this share
// of the effective price, whoever applies it.
const maxManualDiscountRatio = 0.5

type offerSource interface {
	GetByCodeAndProduct(ctx context.Context, code string, productID int64) (*domain.Offer, error)
}

// Quote is the full price breakdown for one purchase attempt. It is
// computed by a single code path shared by the preview endpoint and
// booking creation, so the preview can never diverge from the charge.
type Quote struct {
	EffectivePrice float64
	CouponDiscount float64
	ManualDiscount float64
	FinalAmount    float64
	Offer          *domain.Offer
}

// PreviewMessages carries the non-fatal findings of a lenient preview:
// instead of aborting, an invalid coupon or an oversized manual
// discount turns into a message the form can display.
type PreviewMessages struct {
	Coupon         string
	ManualDiscount string
}

type Engine struct {
	offers offerSource
	now    func() time.Time
}

func NewEngine(offers offerSource) *Engine {
	return &Engine{offers: offers, now: time.Now}
}

// Quote computes the authoritative price for a booking. Pure
// computation plus offer lookup; nothing is persisted. Any rule
// violation aborts with a field-level or authorization error.
func (e *Engine) Quote(ctx context.Context, product *domain.Product, couponCode string, manualDiscount float64, canManualDiscount bool) (*Quote, error) {
	q, couponErr, manualErr := e.evaluate(ctx, product, couponCode, manualDiscount, canManualDiscount)
	if manualErr != nil {
		return nil, manualErr
	}
	if couponErr != nil {
		return nil, couponErr
	}
	return q, nil
}

// Preview runs the same computation leniently: violations become
// messages, an oversized manual discount is dropped from the total, and
// the caller always gets a displayable breakdown.
func (e *Engine) Preview(ctx context.Context, product *domain.Product, couponCode string, manualDiscount float64) (*Quote, *PreviewMessages, error) {
	q, couponErr, manualErr := e.evaluate(ctx, product, couponCode, manualDiscount, true)

	msgs := &PreviewMessages{}
	if couponErr != nil {
		var fe *FieldError
		if !errors.As(couponErr, &fe) {
			return nil, nil, couponErr
		}
		msgs.Coupon = fe.Message
	}
	if manualErr != nil {
		var fe *FieldError
		if !errors.As(manualErr, &fe) {
			return nil, nil, manualErr
		}
		msgs.ManualDiscount = fe.Message
		// recompute with the manual discount dropped
		q.ManualDiscount = 0
		q.FinalAmount = clampFloor(q.EffectivePrice - q.CouponDiscount)
	}
	return q, msgs, nil
}

func (e *Engine) evaluate(ctx context.Context, product *domain.Product, couponCode string, manualDiscount float64, canManualDiscount bool) (q *Quote, couponErr, manualErr error) {
	effective := product.EffectivePrice()
	q = &Quote{EffectivePrice: effective}

	if couponCode != "" {
		offer, err := e.offers.GetByCodeAndProduct(ctx, couponCode, product.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			couponErr = &FieldError{Field: "coupon_code", Message: "invalid coupon code"}
		case err != nil:
			return nil, err, nil
		default:
			if v := ValidateOffer(offer, e.now()); !v.Valid {
				couponErr = &FieldError{Field: "coupon_code", Message: "coupon is invalid or expired: " + v.Reason}
			} else {
				q.Offer = offer
				q.CouponDiscount = offer.AmountOff
			}
		}
	}

	if manualDiscount < 0 {
		manualDiscount = 0
	}
	if manualDiscount > 0 {
		if !canManualDiscount {
			manualErr = ErrManualDiscountForbidden
		} else if max := effective * maxManualDiscountRatio; manualDiscount > max {
			manualErr = &FieldError{
				Field:   "manual_price",
				Message: fmt.Sprintf("manual discount cannot exceed 50%% of price, max allowed: %.2f", max),
			}
		} else {
			q.ManualDiscount = manualDiscount
		}
	}

	q.FinalAmount = clampFloor(effective - q.CouponDiscount - q.ManualDiscount)
	return q, couponErr, manualErr
}

func clampFloor(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Validity is the offer validator verdict; Reason names the first
// failing check.
type Validity struct {
	Valid  bool
	Reason string
}

// ValidateOffer checks, in order: active flag, activity window, usage
// cap. It never mutates usage; redemption accounting is the caller's
// job.
func ValidateOffer(o *domain.Offer, now time.Time) Validity {
	if !o.IsActive {
		return Validity{Reason: "inactive"}
	}
	if now.Before(o.ValidFrom) {
		return Validity{Reason: "not yet active"}
	}
	if o.ValidTo != nil && now.After(*o.ValidTo) {
		return Validity{Reason: "expired"}
	}
	if o.MaxUsage != nil && o.CurrentUsage >= *o.MaxUsage {
		return Validity{Reason: "usage limit reached"}
	}
	return Validity{Valid: true}
}
