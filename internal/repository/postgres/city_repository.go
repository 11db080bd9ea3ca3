package postgres

import (
	"context"
	"errors"
	"fmt"
	"postalops/domain"

	"gorm.io/gorm"
)

type CityRepository struct {
	DB *gorm.DB
}

func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{
		DB: db,
	}
}

func (r *CityRepository) FindActiveByClient(ctx context.Context, clientID uint) ([]domain.City, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var cities []domain.City
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("code").
		Find(&cities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find cities: %w", err)
	}

	return cities, nil
}

func (r *CityRepository) FindByID(ctx context.Context, id uint) (domain.City, error) {
	if err := ctx.Err(); err != nil {
		return domain.City{}, fmt.Errorf("context error: %w", err)
	}

	var city domain.City
	err := r.DB.WithContext(ctx).First(&city, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.City{}, errors.New("city not found")
		}
		return domain.City{}, fmt.Errorf("failed to find city: %w", err)
	}

	return city, nil
}

func (r *CityRepository) FindRequirements(ctx context.Context, clientID uint) ([]domain.CityRequirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var requirements []domain.CityRequirement
	err := r.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("city_id").
		Find(&requirements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find city requirements: %w", err)
	}

	return requirements, nil
}

func (r *CityRepository) UpsertRequirement(ctx context.Context, req *domain.CityRequirement) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	var existing domain.CityRequirement
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND city_id = ?", req.ClientID, req.CityID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
			return fmt.Errorf("failed to create city requirement: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find city requirement: %w", err)
	}

	req.ID = existing.ID
	result := r.DB.WithContext(ctx).Model(&domain.CityRequirement{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"from_classification_a": req.FromClassA,
			"from_classification_b": req.FromClassB,
			"from_classification_c": req.FromClassC,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update city requirement: %w", result.Error)
	}

	return nil
}
