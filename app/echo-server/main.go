package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postalops/app/echo-server/router"
	"postalops/business/export"
	planService "postalops/business/plan"
	"postalops/business/topology"
	userService "postalops/business/user"
	"postalops/internal/middleware"
	psqlRepo "postalops/internal/repository/postgres"
	"postalops/internal/rest"
	"postalops/pkg/config"
	"postalops/pkg/database"
	"postalops/pkg/logger"
	"postalops/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Postal Operations Console", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	metrics.Init()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	cityRepo := psqlRepo.NewCityRepository(db)
	seasonalityRepo := psqlRepo.NewSeasonalityRepository(db)
	topologyRepo := psqlRepo.NewTopologyRepository(db)
	planRepo := psqlRepo.NewPlanRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)

	// Init service
	users := userService.NewUserService(userRepo)
	plans := planService.NewPlanService(
		planRepo,
		cityRepo,
		productRepo,
		seasonalityRepo,
		topologyRepo,
		cfg.Engine.PreviewTokenKey,
		cfg.Engine.CancelSuperseded,
	)
	topo := topology.NewTopologyService(topologyRepo, cityRepo)
	exports := export.NewExportService(cityRepo, seasonalityRepo, topologyRepo, planRepo, topo)

	// Init handler
	userHandler := rest.NewUserHandler(users)
	planHandler := rest.NewPlanHandler(plans)
	reassignmentHandler := rest.NewReassignmentHandler(plans)
	topologyHandler := rest.NewTopologyHandler(topo)
	exportHandler := rest.NewExportHandler(exports)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, userHandler)
	router.SetupPlanRoutes(api, planHandler)
	router.SetupReassignmentRoutes(api, reassignmentHandler)
	router.SetupTopologyRoutes(api, topologyHandler)
	router.SetupExportRoutes(api, exportHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
