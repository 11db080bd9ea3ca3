package postgres

import (
	"context"
	"errors"
	"fmt"
	"postalops/domain"

	"gorm.io/gorm"
)

type PlanRepository struct {
	DB *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{
		DB: db,
	}
}

// CreateWithDetails persists a plan and its detail rows atomically.
func (r *PlanRepository) CreateWithDetails(ctx context.Context, plan *domain.AllocationPlan, details []domain.AllocationPlanDetail) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}

		if len(details) == 0 {
			return nil
		}

		for i := range details {
			details[i].PlanID = plan.ID
		}
		if err := tx.CreateInBatches(details, 500).Error; err != nil {
			return fmt.Errorf("failed to create plan details: %w", err)
		}

		return nil
	})
}

func (r *PlanRepository) FindByID(ctx context.Context, id uint) (domain.AllocationPlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.AllocationPlan{}, fmt.Errorf("context error: %w", err)
	}

	var plan domain.AllocationPlan
	err := r.DB.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AllocationPlan{}, errors.New("plan not found")
		}
		return domain.AllocationPlan{}, fmt.Errorf("failed to find plan: %w", err)
	}

	return plan, nil
}

func (r *PlanRepository) FindByClient(ctx context.Context, clientID uint) ([]domain.AllocationPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var plans []domain.AllocationPlan
	err := r.DB.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find plans: %w", err)
	}

	return plans, nil
}

func (r *PlanRepository) FindDetails(ctx context.Context, planID uint) ([]domain.AllocationPlanDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var details []domain.AllocationPlanDetail
	err := r.DB.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("scheduled_date, id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find plan details: %w", err)
	}

	return details, nil
}

// FindActiveDetails returns every non-cancelled detail row of a client,
// drafts included, for capacity seeding.
func (r *PlanRepository) FindActiveDetails(ctx context.Context, clientID uint) ([]domain.AllocationPlanDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var details []domain.AllocationPlanDetail
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND status <> ?", clientID, domain.DetailStatusCancelled).
		Order("scheduled_date, id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find active plan details: %w", err)
	}

	return details, nil
}

// FindLiveDetails returns the client's live shipment events, the rows the
// export snapshot documents.
func (r *PlanRepository) FindLiveDetails(ctx context.Context, clientID uint) ([]domain.AllocationPlanDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var details []domain.AllocationPlanDetail
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND live = ?", clientID, true).
		Order("scheduled_date, id").
		Find(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find live plan details: %w", err)
	}

	return details, nil
}

// CreateDetails bulk-inserts detail rows, used by the CSV import surface.
func (r *PlanRepository) CreateDetails(ctx context.Context, details []domain.AllocationPlanDetail) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(details) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).CreateInBatches(details, 500).Error; err != nil {
		return fmt.Errorf("failed to create plan details: %w", err)
	}

	return nil
}

// CommitMerge runs the whole merge in one transaction: supersede live rows
// matching the filter (cancel or delete), mark the plan's rows live, then
// flip the plan status. The status update comes last so a failed write never
// leaves a half-committed merged plan.
func (r *PlanRepository) CommitMerge(ctx context.Context, plan domain.AllocationPlan, supersede *domain.SupersedeFilter, cancel bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var superseded int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if supersede != nil {
			scope := tx.Model(&domain.AllocationPlanDetail{}).
				Where("client_id = ? AND product_id = ? AND live = ?", supersede.ClientID, supersede.ProductID, true).
				Where("scheduled_date BETWEEN ? AND ?", supersede.DateFrom, supersede.DateTo).
				Where("status IN ?", []string{domain.DetailStatusPending, domain.DetailStatusNotified})

			var result *gorm.DB
			if cancel {
				result = scope.Update("status", domain.DetailStatusCancelled)
			} else {
				result = tx.Where("client_id = ? AND product_id = ? AND live = ?", supersede.ClientID, supersede.ProductID, true).
					Where("scheduled_date BETWEEN ? AND ?", supersede.DateFrom, supersede.DateTo).
					Where("status IN ?", []string{domain.DetailStatusPending, domain.DetailStatusNotified}).
					Delete(&domain.AllocationPlanDetail{})
			}
			if result.Error != nil {
				return fmt.Errorf("failed to supersede live events: %w", result.Error)
			}
			superseded = result.RowsAffected
		}

		if err := tx.Model(&domain.AllocationPlanDetail{}).
			Where("plan_id = ?", plan.ID).
			Update("live", true).Error; err != nil {
			return fmt.Errorf("failed to mark plan details live: %w", err)
		}

		result := tx.Model(&domain.AllocationPlan{}).
			Where("id = ? AND status = ?", plan.ID, domain.PlanStatusDraft).
			Updates(map[string]interface{}{
				"status":         plan.Status,
				"merge_strategy": plan.MergeStrategy,
				"merged_at":      plan.MergedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update plan status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.New("plan is no longer a draft")
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return superseded, nil
}

// Column references are table-qualified because the affected-nodes query
// joins nodes, which carries its own client_id.
func reassignableScope(db *gorm.DB, filter domain.ReassignFilter) *gorm.DB {
	return db.
		Where("allocation_plan_details.client_id = ? AND allocation_plan_details.live = ?", filter.ClientID, true).
		Where("allocation_plan_details.status IN ?", []string{domain.DetailStatusPending, domain.DetailStatusNotified}).
		Where("allocation_plan_details.scheduled_date BETWEEN ? AND ?", filter.DateFrom, filter.DateTo)
}

// CountReassignable counts the distinct rows the filter matches and collects
// the node codes they reference, for the preview display.
func (r *PlanRepository) CountReassignable(ctx context.Context, filter domain.ReassignFilter) (int64, []string, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := reassignableScope(r.DB.WithContext(ctx).Model(&domain.AllocationPlanDetail{}), filter).
		Where("origin_node_id = ? OR dest_node_id = ?", filter.NodeID, filter.NodeID).
		Count(&count).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count reassignable events: %w", err)
	}
	if count == 0 {
		return 0, nil, nil
	}

	var codes []string
	err = reassignableScope(r.DB.WithContext(ctx).Model(&domain.AllocationPlanDetail{}), filter).
		Where("allocation_plan_details.origin_node_id = ? OR allocation_plan_details.dest_node_id = ?", filter.NodeID, filter.NodeID).
		Joins("JOIN nodes ON nodes.id = allocation_plan_details.origin_node_id OR nodes.id = allocation_plan_details.dest_node_id").
		Distinct("nodes.code").
		Order("nodes.code").
		Pluck("nodes.code", &codes).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to collect affected nodes: %w", err)
	}

	return count, codes, nil
}

// ReassignNodes re-points origin and destination references to newNodeID
// (null unassigns). Two independent statements because a row can match on
// either side or both; they run in one transaction so a destination-phase
// failure rolls back the origin phase.
func (r *PlanRepository) ReassignNodes(ctx context.Context, filter domain.ReassignFilter, newNodeID *uint) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var updated int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reassignableScope(tx.Model(&domain.AllocationPlanDetail{}), filter).
			Where("origin_node_id = ? OR dest_node_id = ?", filter.NodeID, filter.NodeID).
			Count(&updated).Error; err != nil {
			return fmt.Errorf("failed to count reassignable events: %w", err)
		}

		if err := reassignableScope(tx.Model(&domain.AllocationPlanDetail{}), filter).
			Where("origin_node_id = ?", filter.NodeID).
			Update("origin_node_id", newNodeID).Error; err != nil {
			return fmt.Errorf("origin update phase: %w", err)
		}

		if err := reassignableScope(tx.Model(&domain.AllocationPlanDetail{}), filter).
			Where("dest_node_id = ?", filter.NodeID).
			Update("dest_node_id", newNodeID).Error; err != nil {
			return fmt.Errorf("destination update phase: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}
