package repository

import (
	"context"

	"elearn/internal/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
