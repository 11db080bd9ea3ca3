package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"postalops/business/export"
	"postalops/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	ExportHandler struct {
		service ExportService
		timeout time.Duration
	}

	ExportService interface {
		WriteRequirements(ctx context.Context, clientID uint, w io.Writer) error
		WriteSeasonality(ctx context.Context, clientID uint, w io.Writer) error
		WriteTopology(ctx context.Context, clientID uint, w io.Writer) error
		WritePlanDetails(ctx context.Context, clientID uint, w io.Writer) error
		WriteImportTemplate(w io.Writer) error
		ImportPlanDetails(ctx context.Context, clientID uint, r io.Reader) (*export.ImportResult, error)
	}
)

func NewExportHandler(service ExportService) *ExportHandler {
	return &ExportHandler{
		service: service,
		timeout: 60 * time.Second,
	}
}

func (h *ExportHandler) serveCSV(c echo.Context, filename string, write func(ctx context.Context, clientID uint, w io.Writer) error) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := write(ctx, clientID, c.Response()); err != nil {
		logger.Error("Failed to write csv export", err)
		return err
	}
	return nil
}

func (h *ExportHandler) Requirements(c echo.Context) error {
	return h.serveCSV(c, "city_requirements.csv", h.service.WriteRequirements)
}

func (h *ExportHandler) Seasonality(c echo.Context) error {
	return h.serveCSV(c, "product_seasonality.csv", h.service.WriteSeasonality)
}

func (h *ExportHandler) Topology(c echo.Context) error {
	return h.serveCSV(c, "topology_summary.csv", h.service.WriteTopology)
}

func (h *ExportHandler) PlanDetails(c echo.Context) error {
	return h.serveCSV(c, "plan_details.csv", h.service.WritePlanDetails)
}

func (h *ExportHandler) ImportTemplate(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="import_template.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return h.service.WriteImportTemplate(c.Response())
}

func (h *ExportHandler) Import(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing csv file upload"})
	}
	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.service.ImportPlanDetails(ctx, clientID, src)
	if err != nil {
		logger.Error("Failed to import plan details", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}
