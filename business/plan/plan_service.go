package plan

import (
	"context"
	"fmt"
	"time"

	"postalops/domain"
	"postalops/pkg/logger"
	"postalops/pkg/metrics"

	"github.com/google/uuid"
)

type CityRepository interface {
	FindActiveByClient(ctx context.Context, clientID uint) ([]domain.City, error)
	FindByID(ctx context.Context, id uint) (domain.City, error)
	FindRequirements(ctx context.Context, clientID uint) ([]domain.CityRequirement, error)
	UpsertRequirement(ctx context.Context, req *domain.CityRequirement) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	FindActiveByClient(ctx context.Context, clientID uint) ([]domain.Product, error)
}

type SeasonalityRepository interface {
	// FindByProductYear returns nil without error when no curve is
	// configured.
	FindByProductYear(ctx context.Context, clientID, productID uint, year int) (*domain.ProductSeasonality, error)
}

type TopologyRepository interface {
	FindActiveNodes(ctx context.Context, clientID uint) ([]domain.Node, error)
	FindActivePanelists(ctx context.Context, clientID uint) ([]domain.Panelist, error)
	FindPanelist(ctx context.Context, clientID, panelistID uint) (domain.Panelist, error)
}

type PlanRepository interface {
	CreateWithDetails(ctx context.Context, plan *domain.AllocationPlan, details []domain.AllocationPlanDetail) error
	FindByID(ctx context.Context, id uint) (domain.AllocationPlan, error)
	FindByClient(ctx context.Context, clientID uint) ([]domain.AllocationPlan, error)
	FindDetails(ctx context.Context, planID uint) ([]domain.AllocationPlanDetail, error)
	// FindActiveDetails returns the client's non-cancelled detail rows, used
	// to seed panelist capacity before generation.
	FindActiveDetails(ctx context.Context, clientID uint) ([]domain.AllocationPlanDetail, error)
	// CommitMerge atomically supersedes live rows matching the filter (when
	// non-nil), marks the plan's details live and flips the plan to merged.
	CommitMerge(ctx context.Context, plan domain.AllocationPlan, supersede *domain.SupersedeFilter, cancel bool) (int64, error)
	// CountReassignable counts mutable live rows matching the filter and
	// returns the distinct node codes they reference.
	CountReassignable(ctx context.Context, filter domain.ReassignFilter) (int64, []string, error)
	// ReassignNodes re-points origin and destination references in one
	// transaction and returns the number of distinct rows touched.
	ReassignNodes(ctx context.Context, filter domain.ReassignFilter, newNodeID *uint) (int64, error)
}

// PlanService is the allocation plan engine: generation, merge and bulk
// reassignment. Tenancy is an explicit clientID argument on every call; the
// service holds no per-client state and is safe for concurrent use across
// clients.
type PlanService struct {
	planRepo        PlanRepository
	cityRepo        CityRepository
	productRepo     ProductRepository
	seasonalityRepo SeasonalityRepository
	topologyRepo    TopologyRepository
	previewTokenKey string
	cancelOnReplace bool
}

func NewPlanService(
	planRepo PlanRepository,
	cityRepo CityRepository,
	productRepo ProductRepository,
	seasonalityRepo SeasonalityRepository,
	topologyRepo TopologyRepository,
	previewTokenKey string,
	cancelOnReplace bool,
) *PlanService {
	return &PlanService{
		planRepo:        planRepo,
		cityRepo:        cityRepo,
		productRepo:     productRepo,
		seasonalityRepo: seasonalityRepo,
		topologyRepo:    topologyRepo,
		previewTokenKey: previewTokenKey,
		cancelOnReplace: cancelOnReplace,
	}
}

// GeneratedPlan is a freshly persisted draft plus the demand that did not
// fit anywhere in its month.
type GeneratedPlan struct {
	Plan     domain.AllocationPlan         `json:"plan"`
	Details  []domain.AllocationPlanDetail `json:"details"`
	Deferred []DeferredUnit                `json:"deferred"`
}

// Generate builds and persists a draft allocation plan for one client,
// product and year.
func (s *PlanService) Generate(ctx context.Context, clientID, productID uint, year int, opts GenerateOptions) (*GeneratedPlan, error) {
	started := time.Now()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ClientID != clientID {
		return nil, fmt.Errorf("product %d does not belong to client %d", productID, clientID)
	}

	cities, err := s.cityRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	requirements, err := s.cityRepo.FindRequirements(ctx, clientID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.topologyRepo.FindActiveNodes(ctx, clientID)
	if err != nil {
		return nil, err
	}
	panelists, err := s.topologyRepo.FindActivePanelists(ctx, clientID)
	if err != nil {
		return nil, err
	}
	existing, err := s.planRepo.FindActiveDetails(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var seasonality *domain.ProductSeasonality
	if opts.ApplySeasonality {
		seasonality, err = s.seasonalityRepo.FindByProductYear(ctx, clientID, productID, year)
		if err != nil {
			return nil, err
		}
	}

	built, err := BuildPlan(GeneratorInput{
		ClientID:     clientID,
		Product:      product,
		Year:         year,
		Cities:       cities,
		Requirements: requirements,
		Nodes:        nodes,
		Panelists:    panelists,
		Seasonality:  seasonality,
		Existing:     existing,
		Options:      opts,
	})
	if err != nil {
		return nil, err
	}

	newPlan := domain.AllocationPlan{
		ClientID:  clientID,
		ProductID: productID,
		Year:      year,
		Reference: uuid.NewString(),
		Status:    domain.PlanStatusDraft,
	}
	if err := s.planRepo.CreateWithDetails(ctx, &newPlan, built.Details); err != nil {
		return nil, err
	}

	metrics.PlanGenerateDuration.Observe(time.Since(started).Seconds())
	metrics.PlanEventsGenerated.Add(float64(len(built.Details)))
	metrics.PlanEventsDeferred.Add(float64(len(built.Deferred)))

	logger.Info("plan generated",
		"client_id", clientID,
		"plan_id", newPlan.ID,
		"events", len(built.Details),
		"deferred", len(built.Deferred),
	)

	details, err := s.planRepo.FindDetails(ctx, newPlan.ID)
	if err != nil {
		return nil, err
	}

	return &GeneratedPlan{Plan: newPlan, Details: details, Deferred: built.Deferred}, nil
}

// IncomingTotal exposes the requirement math for one destination city.
func (s *PlanService) IncomingTotal(ctx context.Context, clientID, cityID uint) (int, error) {
	city, err := s.cityRepo.FindByID(ctx, cityID)
	if err != nil {
		return 0, err
	}
	if city.ClientID != clientID {
		return 0, fmt.Errorf("city %d does not belong to client %d", cityID, clientID)
	}

	cities, err := s.cityRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	requirements, err := s.cityRepo.FindRequirements(ctx, clientID)
	if err != nil {
		return 0, err
	}

	var req *domain.CityRequirement
	for i := range requirements {
		if requirements[i].CityID == cityID {
			req = &requirements[i]
			break
		}
	}

	return IncomingTotal(city, req, CountActiveByClass(cities)), nil
}

// SetRequirement creates or updates a destination city's per-class incoming
// requirement.
func (s *PlanService) SetRequirement(ctx context.Context, clientID, cityID uint, fromA, fromB, fromC int) (domain.CityRequirement, error) {
	city, err := s.cityRepo.FindByID(ctx, cityID)
	if err != nil {
		return domain.CityRequirement{}, err
	}
	if city.ClientID != clientID {
		return domain.CityRequirement{}, fmt.Errorf("city %d does not belong to client %d", cityID, clientID)
	}

	req := domain.CityRequirement{
		ClientID:   clientID,
		CityID:     cityID,
		FromClassA: fromA,
		FromClassB: fromB,
		FromClassC: fromC,
	}
	if err := s.cityRepo.UpsertRequirement(ctx, &req); err != nil {
		return domain.CityRequirement{}, err
	}

	logger.Info("city requirement updated",
		"client_id", clientID,
		"city_id", cityID,
		"from_a", fromA,
		"from_b", fromB,
		"from_c", fromC,
	)

	return req, nil
}

func (s *PlanService) GetPlan(ctx context.Context, clientID, planID uint) (domain.AllocationPlan, []domain.AllocationPlanDetail, error) {
	found, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return domain.AllocationPlan{}, nil, err
	}
	if found.ClientID != clientID {
		return domain.AllocationPlan{}, nil, fmt.Errorf("plan %d does not belong to client %d", planID, clientID)
	}

	details, err := s.planRepo.FindDetails(ctx, planID)
	if err != nil {
		return domain.AllocationPlan{}, nil, err
	}

	return found, details, nil
}

func (s *PlanService) ListPlans(ctx context.Context, clientID uint) ([]domain.AllocationPlan, error) {
	return s.planRepo.FindByClient(ctx, clientID)
}

func (s *PlanService) ListProducts(ctx context.Context, clientID uint) ([]domain.Product, error) {
	return s.productRepo.FindActiveByClient(ctx, clientID)
}

func (s *PlanService) ListCities(ctx context.Context, clientID uint) ([]domain.City, error) {
	return s.cityRepo.FindActiveByClient(ctx, clientID)
}
