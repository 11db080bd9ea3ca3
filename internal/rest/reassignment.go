package rest

import (
	"context"
	"net/http"
	"time"

	"postalops/business/plan"
	"postalops/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ReassignmentHandler struct {
		validate *validator.Validate
		service  ReassignmentService
		timeout  time.Duration
	}

	ReassignmentService interface {
		Preview(ctx context.Context, req plan.ReassignRequest) (*plan.PreviewResult, error)
		Execute(ctx context.Context, req plan.ReassignRequest, token string) (*plan.ExecuteResult, error)
	}

	ReassignmentInput struct {
		OldPanelistID uint   `json:"old_panelist_id" validate:"required"`
		NewPanelistID *uint  `json:"new_panelist_id"`
		DateFrom      string `json:"date_from" validate:"required,datetime=2006-01-02"`
		DateTo        string `json:"date_to" validate:"required,datetime=2006-01-02"`
		Token         string `json:"token"`
	}
)

func NewReassignmentHandler(service ReassignmentService) *ReassignmentHandler {
	return &ReassignmentHandler{
		validate: validator.New(),
		service:  service,
		timeout:  30 * time.Second,
	}
}

func (h *ReassignmentHandler) bindRequest(c echo.Context) (plan.ReassignRequest, string, error) {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return plan.ReassignRequest{}, "", err
	}

	var input ReassignmentInput
	if err := c.Bind(&input); err != nil {
		return plan.ReassignRequest{}, "", err
	}
	if err := h.validate.Struct(&input); err != nil {
		return plan.ReassignRequest{}, "", err
	}

	dateFrom, _ := time.ParseInLocation("2006-01-02", input.DateFrom, time.UTC)
	dateTo, _ := time.ParseInLocation("2006-01-02", input.DateTo, time.UTC)

	return plan.ReassignRequest{
		ClientID:      clientID,
		OldPanelistID: input.OldPanelistID,
		NewPanelistID: input.NewPanelistID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
	}, input.Token, nil
}

func (h *ReassignmentHandler) Preview(c echo.Context) error {
	request, _, err := h.bindRequest(c)
	if err != nil {
		logger.Error("Failed to validate reassignment preview", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	preview, err := h.service.Preview(ctx, request)
	if err != nil {
		logger.Error("Failed to preview reassignment", err)
		return c.JSON(planErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(preview))
}

func (h *ReassignmentHandler) Execute(c echo.Context) error {
	request, token, err := h.bindRequest(c)
	if err != nil {
		logger.Error("Failed to validate reassignment execute", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	executed, err := h.service.Execute(ctx, request, token)
	if err != nil {
		logger.Error("Failed to execute reassignment", err)
		return c.JSON(planErrorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(executed))
}
