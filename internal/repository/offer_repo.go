package repository

import (
	"context"
	"strings"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// GetByCodeAndProduct matches a voucher code case-insensitively against
// the product it is scoped to. Codes are stored upper-case.
func (r *OfferRepository) GetByCodeAndProduct(ctx context.Context, code string, productID int64) (*domain.Offer, error) {
	var o domain.Offer
	code = strings.ToUpper(strings.TrimSpace(code))
	err := r.db.WithContext(ctx).
		Where("code = ? AND product_id = ?", code, productID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// IncrementUsage bumps the redemption counter atomically and refuses to
// go past the cap. Returns false when the cap was already reached by a
// concurrent redemption.
func (r *OfferRepository) IncrementUsage(ctx context.Context, offerID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ? AND (max_usage IS NULL OR current_usage < max_usage)", offerID).
		UpdateColumn("current_usage", gorm.Expr("current_usage + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
