package postgres

import (
	"context"
	"errors"
	"fmt"
	"postalops/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("context error: %w", err)
	}

	var product domain.Product
	err := r.DB.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, errors.New("product not found")
		}
		return domain.Product{}, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) FindActiveByClient(ctx context.Context, clientID uint) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var products []domain.Product
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("code").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	return products, nil
}
