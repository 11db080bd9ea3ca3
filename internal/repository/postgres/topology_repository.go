package postgres

import (
	"context"
	"errors"
	"fmt"
	"postalops/domain"

	"gorm.io/gorm"
)

type TopologyRepository struct {
	DB *gorm.DB
}

func NewTopologyRepository(db *gorm.DB) *TopologyRepository {
	return &TopologyRepository{
		DB: db,
	}
}

func (r *TopologyRepository) FindActiveNodes(ctx context.Context, clientID uint) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var nodes []domain.Node
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("code").
		Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find nodes: %w", err)
	}

	return nodes, nil
}

func (r *TopologyRepository) FindActivePanelists(ctx context.Context, clientID uint) ([]domain.Panelist, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var panelists []domain.Panelist
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("id").
		Find(&panelists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find panelists: %w", err)
	}

	return panelists, nil
}

func (r *TopologyRepository) FindPanelist(ctx context.Context, clientID, panelistID uint) (domain.Panelist, error) {
	if err := ctx.Err(); err != nil {
		return domain.Panelist{}, fmt.Errorf("context error: %w", err)
	}

	var panelist domain.Panelist
	err := r.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		First(&panelist, panelistID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Panelist{}, errors.New("panelist not found")
		}
		return domain.Panelist{}, fmt.Errorf("failed to find panelist: %w", err)
	}

	return panelist, nil
}
