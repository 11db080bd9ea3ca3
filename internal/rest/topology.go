package rest

import (
	"context"
	"net/http"
	"time"

	"postalops/business/topology"
	"postalops/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	TopologyHandler struct {
		service TopologyService
		timeout time.Duration
	}

	TopologyService interface {
		Summarize(ctx context.Context, clientID uint) ([]topology.Summary, error)
	}
)

func NewTopologyHandler(service TopologyService) *TopologyHandler {
	return &TopologyHandler{
		service: service,
		timeout: 10 * time.Second,
	}
}

func (h *TopologyHandler) GetTopology(c echo.Context) error {
	clientID, err := paramUint(c, "clientID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summaries, err := h.service.Summarize(ctx, clientID)
	if err != nil {
		logger.Error("Failed to get topology", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(summaries))
}
