package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"elearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOfferSource struct {
	offers map[string]*domain.Offer
}

func (f *fakeOfferSource) GetByCodeAndProduct(ctx context.Context, code string, productID int64) (*domain.Offer, error) {
	if o, ok := f.offers[code]; ok && o.ProductID == productID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func fixedEngine(offers map[string]*domain.Offer, now time.Time) *Engine {
	e := NewEngine(&fakeOfferSource{offers: offers})
	e.now = func() time.Time { return now }
	return e
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestQuote_DiscountStacking(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	product := &domain.Product{ID: 1, Price: 1000, DiscountedPrice: floatPtr(800)}
	offers := map[string]*domain.Offer{
		"SAVE100": {ID: 7, Code: "SAVE100", ProductID: 1, AmountOff: 100, IsActive: true, ValidFrom: now.Add(-time.Hour)},
	}
	e := fixedEngine(offers, now)

	q, err := e.Quote(context.Background(), product, "SAVE100", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 800.0, q.EffectivePrice)
	assert.Equal(t, 100.0, q.CouponDiscount)
	assert.Equal(t, 700.0, q.FinalAmount)

	// coupon + manual stack against the effective price
	q, err = e.Quote(context.Background(), product, "SAVE100", 200, true)
	require.NoError(t, err)
	assert.Equal(t, 500.0, q.FinalAmount)
}

func TestQuote_FinalAmountFlooredAtZero(t *testing.T) {
	now := time.Now()
	product := &domain.Product{ID: 1, Price: 120}
	offers := map[string]*domain.Offer{
		"BIG": {ID: 3, Code: "BIG", ProductID: 1, AmountOff: 150, IsActive: true, ValidFrom: now.Add(-time.Hour)},
	}
	e := fixedEngine(offers, now)

	q, err := e.Quote(context.Background(), product, "BIG", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.FinalAmount)
}

func TestQuote_ManualDiscountCeiling(t *testing.T) {
	product := &domain.Product{ID: 1, Price: 1000, DiscountedPrice: floatPtr(800)}
	e := fixedEngine(nil, time.Now())

	// 500 > 50% of 800
	_, err := e.Quote(context.Background(), product, "", 500, true)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "manual_price", fe.Field)
	assert.Contains(t, fe.Message, "400.00")

	// exactly at the ceiling is allowed
	q, err := e.Quote(context.Background(), product, "", 400, true)
	require.NoError(t, err)
	assert.Equal(t, 400.0, q.FinalAmount)
}

func TestQuote_ManualDiscountRequiresCapability(t *testing.T) {
	product := &domain.Product{ID: 1, Price: 1000}
	e := fixedEngine(nil, time.Now())

	// even a small manual discount is rejected without the grant
	_, err := e.Quote(context.Background(), product, "", 10, false)
	assert.True(t, errors.Is(err, ErrManualDiscountForbidden))

	// negative input is treated as no discount, not an error
	q, err := e.Quote(context.Background(), product, "", -50, false)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, q.FinalAmount)
}

func TestQuote_InvalidCouponSurfacesFieldError(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	product := &domain.Product{ID: 1, Price: 1000}
	offers := map[string]*domain.Offer{
		"SAVE100": {ID: 9, Code: "SAVE100", ProductID: 1, AmountOff: 100, IsActive: true,
			ValidFrom: now.Add(-48 * time.Hour), ValidTo: &expired},
	}
	e := fixedEngine(offers, now)

	_, err := e.Quote(context.Background(), product, "SAVE100", 0, false)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "coupon_code", fe.Field)
	assert.Contains(t, fe.Message, "expired")

	_, err = e.Quote(context.Background(), product, "NOPE", 0, false)
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "invalid coupon code")
}

func TestPreview_CollectsMessagesInsteadOfFailing(t *testing.T) {
	now := time.Now()
	product := &domain.Product{ID: 1, Price: 1000, DiscountedPrice: floatPtr(800)}
	offers := map[string]*domain.Offer{
		"SAVE100": {ID: 7, Code: "SAVE100", ProductID: 1, AmountOff: 100, IsActive: true, ValidFrom: now.Add(-time.Hour)},
	}
	e := fixedEngine(offers, now)

	q, msgs, err := e.Preview(context.Background(), product, "SAVE100", 0)
	require.NoError(t, err)
	assert.Equal(t, 700.0, q.FinalAmount)
	assert.Empty(t, msgs.Coupon)

	// oversized manual discount: message plus a breakdown without it
	q, msgs, err = e.Preview(context.Background(), product, "SAVE100", 500)
	require.NoError(t, err)
	assert.Contains(t, msgs.ManualDiscount, "400.00")
	assert.Equal(t, 0.0, q.ManualDiscount)
	assert.Equal(t, 700.0, q.FinalAmount)

	q, msgs, err = e.Preview(context.Background(), product, "WRONG", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs.Coupon)
	assert.Equal(t, 800.0, q.FinalAmount)
}

func TestValidateOffer_ReasonOrdering(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		offer  domain.Offer
		valid  bool
		reason string
	}{
		{"active open-ended", domain.Offer{IsActive: true, ValidFrom: past}, true, ""},
		{"inactive wins over expired", domain.Offer{IsActive: false, ValidFrom: past, ValidTo: &past}, false, "inactive"},
		{"not yet active", domain.Offer{IsActive: true, ValidFrom: future}, false, "not yet active"},
		{"expired", domain.Offer{IsActive: true, ValidFrom: past.Add(-time.Hour), ValidTo: &past}, false, "expired"},
		{"usage cap reached", domain.Offer{IsActive: true, ValidFrom: past, MaxUsage: intPtr(5), CurrentUsage: 5}, false, "usage limit reached"},
		{"under usage cap", domain.Offer{IsActive: true, ValidFrom: past, MaxUsage: intPtr(5), CurrentUsage: 4}, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := ValidateOffer(&tc.offer, now)
			assert.Equal(t, tc.valid, v.Valid)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}
