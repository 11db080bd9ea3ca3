package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"postalops/business/plan"
	"postalops/domain"
	"postalops/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PlanHandler struct {
		validate    *validator.Validate
		planService PlanService
		timeout     time.Duration
	}

	PlanService interface {
		Generate(ctx context.Context, clientID, productID uint, year int, opts plan.GenerateOptions) (*plan.GeneratedPlan, error)
		Merge(ctx context.Context, clientID, planID uint, strategy string) (*plan.MergeResult, error)
		GetPlan(ctx context.Context, clientID, planID uint) (domain.AllocationPlan, []domain.AllocationPlanDetail, error)
		ListPlans(ctx context.Context, clientID uint) ([]domain.AllocationPlan, error)
		ListProducts(ctx context.Context, clientID uint) ([]domain.Product, error)
		ListCities(ctx context.Context, clientID uint) ([]domain.City, error)
		IncomingTotal(ctx context.Context, clientID, cityID uint) (int, error)
		SetRequirement(ctx context.Context, clientID, cityID uint, fromA, fromB, fromC int) (domain.CityRequirement, error)
	}

	GeneratePlanInput struct {
		ProductID        uint `json:"product_id" validate:"required"`
		Year             int  `json:"year" validate:"required,min=2000,max=2100"`
		ApplyCityWeights bool `json:"apply_city_weights"`
		ApplySeasonality bool `json:"apply_seasonality"`
	}

	MergePlanInput struct {
		Strategy string `json:"strategy" validate:"required,oneof=add replace"`
	}

	RequirementInput struct {
		FromClassA int `json:"from_class_a" validate:"min=0"`
		FromClassB int `json:"from_class_b" validate:"min=0"`
		FromClassC int `json:"from_class_c" validate:"min=0"`
	}
)

func NewPlanHandler(planService PlanService) *PlanHandler {
	return &PlanHandler{
		validate:    validator.New(),
		planService: planService,
		timeout:     60 * time.Second,
	}
}

func (h *PlanHandler) GeneratePlan(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var request GeneratePlanInput
	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate generate plan input", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	generated, err := h.planService.Generate(ctx, clientID, request.ProductID, request.Year, plan.GenerateOptions{
		ApplyCityWeights: request.ApplyCityWeights,
		ApplySeasonality: request.ApplySeasonality,
	})
	if err != nil {
		logger.Error("Failed to generate plan", err)
		return c.JSON(planErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(generated))
}

func (h *PlanHandler) MergePlan(c echo.Context) error {
	planID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var request MergePlanInput
	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate merge input", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	merged, err := h.planService.Merge(ctx, clientID, planID, request.Strategy)
	if err != nil {
		logger.Error("Failed to merge plan", err)
		return c.JSON(planErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(merged))
}

func (h *PlanHandler) GetPlanByID(c echo.Context) error {
	planID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	found, details, err := h.planService.GetPlan(ctx, clientID, planID)
	if err != nil {
		logger.Error("Failed to get plan by id", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"plan":    found,
		"details": details,
	}))
}

func (h *PlanHandler) GetAllPlans(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	plans, err := h.planService.ListPlans(ctx, clientID)
	if err != nil {
		logger.Error("Failed to get all plans", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(plans))
}

func (h *PlanHandler) GetAllProducts(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	products, err := h.planService.ListProducts(ctx, clientID)
	if err != nil {
		logger.Error("Failed to get products", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(products))
}

func (h *PlanHandler) GetAllCities(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cities, err := h.planService.ListCities(ctx, clientID)
	if err != nil {
		logger.Error("Failed to get cities", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cities))
}

func (h *PlanHandler) GetIncomingTotal(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	cityID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	total, err := h.planService.IncomingTotal(ctx, clientID, cityID)
	if err != nil {
		logger.Error("Failed to compute incoming total", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"city_id":        cityID,
		"incoming_total": total,
	}))
}

func (h *PlanHandler) UpsertRequirement(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	cityID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var request RequirementInput
	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate requirement input", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	req, err := h.planService.SetRequirement(ctx, clientID, cityID,
		request.FromClassA, request.FromClassB, request.FromClassC)
	if err != nil {
		logger.Error("Failed to upsert city requirement", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(req))
}

// planErrorStatus distinguishes precondition and configuration errors from
// state conflicts so the operator message matches what actually happened.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, plan.ErrAlreadyMerged), errors.Is(err, plan.ErrNothingToReassign):
		return http.StatusConflict
	case errors.Is(err, plan.ErrInvalidSeasonality),
		errors.Is(err, plan.ErrSeasonalityNotFound),
		errors.Is(err, plan.ErrInvalidDateRange),
		errors.Is(err, plan.ErrNoAssignedNode),
		errors.Is(err, plan.ErrInvalidStrategy),
		errors.Is(err, plan.ErrInvalidPreviewToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func paramUint(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be a positive number")
	}
	return uint(value), nil
}
