package router

import (
	"postalops/internal/middleware"
	"postalops/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.UserHandler) {
	auth := api.Group("/auth")

	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
}

func SetupPlanRoutes(api *echo.Group, handler *rest.PlanHandler) {
	clients := api.Group("/clients/:clientID", middleware.AuthMiddleware())
	clients.POST("/plans/generate", handler.GeneratePlan)
	clients.GET("/plans", handler.GetAllPlans)
	clients.GET("/plans/:id", handler.GetPlanByID)
	clients.POST("/plans/:id/merge", handler.MergePlan)
	clients.GET("/products", handler.GetAllProducts)
	clients.GET("/cities", handler.GetAllCities)
	clients.GET("/cities/:id/incoming-total", handler.GetIncomingTotal)
	clients.PUT("/cities/:id/requirements", handler.UpsertRequirement)
}

func SetupReassignmentRoutes(api *echo.Group, handler *rest.ReassignmentHandler) {
	reassign := api.Group("/clients/:clientID/reassignments", middleware.AuthMiddleware())
	reassign.POST("/preview", handler.Preview)
	reassign.POST("/execute", handler.Execute)
}

func SetupTopologyRoutes(api *echo.Group, handler *rest.TopologyHandler) {
	topo := api.Group("/clients/:clientID/topology", middleware.AuthMiddleware())
	topo.GET("", handler.GetTopology)
}

func SetupExportRoutes(api *echo.Group, handler *rest.ExportHandler) {
	exports := api.Group("/clients/:clientID/exports", middleware.AuthMiddleware())
	exports.GET("/requirements", handler.Requirements)
	exports.GET("/seasonality", handler.Seasonality)
	exports.GET("/topology", handler.Topology)
	exports.GET("/plan-details", handler.PlanDetails)
	exports.GET("/import-template", handler.ImportTemplate)

	imports := api.Group("/clients/:clientID/imports", middleware.AuthMiddleware())
	imports.POST("/plan-details", handler.Import)
}
