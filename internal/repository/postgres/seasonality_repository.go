package postgres

import (
	"context"
	"errors"
	"fmt"
	"postalops/domain"

	"gorm.io/gorm"
)

type SeasonalityRepository struct {
	DB *gorm.DB
}

func NewSeasonalityRepository(db *gorm.DB) *SeasonalityRepository {
	return &SeasonalityRepository{
		DB: db,
	}
}

// FindByProductYear returns nil when no curve is configured; absence is a
// valid state, not an error.
func (r *SeasonalityRepository) FindByProductYear(ctx context.Context, clientID, productID uint, year int) (*domain.ProductSeasonality, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var seasonality domain.ProductSeasonality
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND product_id = ? AND year = ?", clientID, productID, year).
		First(&seasonality).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find seasonality: %w", err)
	}

	return &seasonality, nil
}

func (r *SeasonalityRepository) FindByClient(ctx context.Context, clientID uint) ([]domain.ProductSeasonality, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.ProductSeasonality
	err := r.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("product_id, year").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find seasonality rows: %w", err)
	}

	return rows, nil
}
