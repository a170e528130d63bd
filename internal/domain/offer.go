package domain

import "time"

// Offer is a fixed-amount voucher scoped to a single product. Codes are
// stored normalized upper-case and matched case-insensitively.
type Offer struct {
	ID          int64   `json:"id"`
	VoucherName string  `json:"voucher_name"`
	Code        string  `json:"code" gorm:"uniqueIndex;size:50"`
	ProductID   int64   `json:"product_id" gorm:"index;not null"`
	AmountOff   float64 `json:"amount_off" validate:"gte=0"`
	IsActive    bool    `json:"is_active"`

	ValidFrom time.Time  `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to,omitempty"` // nil = open-ended

	MaxUsage     *int `json:"max_usage,omitempty"` // nil = unlimited
	CurrentUsage int  `json:"current_usage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
