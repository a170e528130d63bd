package domain

import "time"

type Product struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	Slug  string `json:"slug,omitempty"`
	Price float64 `json:"price" validate:"gte=0"`

	// Optional promotional price. When set it becomes the effective
	// price for every pricing path.
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`

	// Course access duration in days. 0 or null means lifetime.
	DurationDays *int `json:"duration_days,omitempty"`

	Description string    `json:"description,omitempty" gorm:"type:text"`
	TotalSeats  int       `json:"total_seats"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EffectivePrice returns the discounted price when present, otherwise
// the list price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// HasLifetimeAccess reports whether a paid booking for this product
// never expires.
func (p *Product) HasLifetimeAccess() bool {
	return p.DurationDays == nil || *p.DurationDays <= 0
}
