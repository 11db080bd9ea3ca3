package plan

import (
	"context"
	"fmt"
	"time"

	"postalops/domain"
	"postalops/pkg/logger"
	"postalops/pkg/metrics"
)

// MergeResult reports what a committed merge did.
type MergeResult struct {
	Plan       domain.AllocationPlan `json:"plan"`
	Inserted   int                   `json:"inserted"`
	Superseded int64                 `json:"superseded"`
}

// Merge commits a draft plan. With the add strategy the draft's events join
// the live set untouched; with replace, live events for the same product
// inside the draft's date range are superseded first. The whole commit is one
// transaction: the plan flips to merged only after every row is written.
func (s *PlanService) Merge(ctx context.Context, clientID, planID uint, strategy string) (*MergeResult, error) {
	if strategy != domain.MergeStrategyAdd && strategy != domain.MergeStrategyReplace {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}

	target, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if target.ClientID != clientID {
		return nil, fmt.Errorf("plan %d does not belong to client %d", planID, clientID)
	}
	if target.Status == domain.PlanStatusMerged {
		return nil, fmt.Errorf("plan %d: %w", planID, ErrAlreadyMerged)
	}

	details, err := s.planRepo.FindDetails(ctx, planID)
	if err != nil {
		return nil, err
	}

	var supersede *domain.SupersedeFilter
	if strategy == domain.MergeStrategyReplace && len(details) > 0 {
		from, to := detailDateRange(details)
		supersede = &domain.SupersedeFilter{
			ClientID:  clientID,
			ProductID: target.ProductID,
			DateFrom:  from,
			DateTo:    to,
		}
	}

	now := time.Now()
	target.Status = domain.PlanStatusMerged
	target.MergeStrategy = strategy
	target.MergedAt = &now

	superseded, err := s.planRepo.CommitMerge(ctx, target, supersede, s.cancelOnReplace)
	if err != nil {
		return nil, err
	}

	metrics.PlanMergeTotal.WithLabelValues(strategy).Inc()

	logger.Info("plan merged",
		"client_id", clientID,
		"plan_id", planID,
		"strategy", strategy,
		"inserted", len(details),
		"superseded", superseded,
	)

	return &MergeResult{Plan: target, Inserted: len(details), Superseded: superseded}, nil
}

func detailDateRange(details []domain.AllocationPlanDetail) (time.Time, time.Time) {
	from, to := details[0].ScheduledDate, details[0].ScheduledDate
	for _, d := range details[1:] {
		if d.ScheduledDate.Before(from) {
			from = d.ScheduledDate
		}
		if d.ScheduledDate.After(to) {
			to = d.ScheduledDate
		}
	}
	return from, to
}
