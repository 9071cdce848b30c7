package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codigix/passion-clothing-sub006/pkg/cloudevents"
	"github.com/codigix/passion-clothing-sub006/pkg/errors"
	"github.com/codigix/passion-clothing-sub006/pkg/logging"
	"github.com/codigix/passion-clothing-sub006/pkg/metrics"
	"github.com/codigix/passion-clothing-sub006/pkg/middleware"
	"github.com/codigix/passion-clothing-sub006/pkg/mongodb"
	"github.com/codigix/passion-clothing-sub006/pkg/tracing"

	"github.com/codigix/passion-clothing-sub006/internal/api/dto"
	"github.com/codigix/passion-clothing-sub006/internal/application"
	"github.com/codigix/passion-clothing-sub006/internal/config"
	"github.com/codigix/passion-clothing-sub006/internal/domain"
	mongoRepo "github.com/codigix/passion-clothing-sub006/internal/infrastructure/mongodb"
	"github.com/codigix/passion-clothing-sub006/internal/infrastructure/projections"
)

const serviceName = "lifecycle-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting lifecycle-service API")

	// Load configuration
	cfg := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Load the stage plan catalog
	catalog, err := config.LoadPlanCatalog(cfg.StagePlansPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load stage plan catalog", "path", cfg.StagePlansPath)
		os.Exit(1)
	}
	logger.Info("Stage plan catalog loaded", "productTypes", catalog.ProductTypes())

	// Initialize MongoDB with instrumentation
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	// Initialize repositories
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceLifecycle)
	unitRepo := mongoRepo.NewUnitRepository(instrumentedMongo.Database(), eventFactory)
	analyticsRepo := projections.NewAnalyticsRepository(instrumentedMongo.Database())

	// Initialize application service
	service := application.NewLifecycleService(unitRepo, analyticsRepo, catalog)

	// Business metrics helper for handlers
	business := middleware.NewBusinessMetrics(m)

	// Setup Gin router with middleware
	router := gin.New()
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))
	router.Use(middleware.CloudEvents())

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	api := router.Group("/api/v1/units")
	{
		api.POST("", createUnitHandler(service, business, logger))
		api.GET("/order/:orderId", getUnitsForOrderHandler(service, logger))
		api.GET("/:unitId", getUnitHandler(service, logger))
		api.GET("/:unitId/summary", getSummaryHandler(service, logger))
		api.GET("/:unitId/history", getHistoryHandler(service, logger))
		api.POST("/:unitId/stages/start", startStageHandler(service, logger))
		api.POST("/:unitId/transitions", recordTransitionHandler(service, business, logger))
		api.POST("/:unitId/freeze", freezeUnitHandler(service, logger))
		api.POST("/:unitId/checkpoints", setCheckpointHandler(service, logger))
		api.GET("/:unitId/checkpoints/:stage", evaluateGateHandler(service, logger))
		api.POST("/:unitId/material/allocate", allocateMaterialHandler(service, logger))
		api.POST("/:unitId/material/consumption", recordConsumptionHandler(service, business, logger))
		api.GET("/:unitId/material", getMaterialHandler(service, logger))
		api.POST("/:unitId/rework", recordReworkHandler(service, business, logger))
	}

	// Analytics routes
	analytics := router.Group("/api/v1/analytics")
	{
		analytics.GET("/stage-counts", stageCountsHandler(service, logger))
		analytics.GET("/recent-transitions", recentTransitionsHandler(service, logger))
		analytics.GET("/overdue", overdueUnitsHandler(service, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr     string
	StagePlansPath string
	MongoDB        *mongodb.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8014"),
		StagePlansPath: getEnv("STAGE_PLANS_PATH", "configs/stageplans.yaml"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "production_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// respondError maps domain errors to HTTP responses
func respondError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		middleware.AbortWithAppError(c, appErr)
		return
	}

	var outOfOrder *domain.OutOfOrderStageError
	var gateBlocked *domain.CheckpointsIncompleteError

	switch {
	case stderrors.Is(err, domain.ErrUnitNotFound):
		middleware.AbortWithAppError(c, errors.ErrNotFound("unit"))
	case stderrors.Is(err, domain.ErrStageNotFound):
		middleware.AbortWithAppError(c, errors.ErrNotFound("stage"))
	case stderrors.Is(err, domain.ErrDuplicateBarcode),
		stderrors.Is(err, domain.ErrConcurrentModification),
		stderrors.Is(err, domain.ErrUnitTerminal),
		stderrors.Is(err, domain.ErrNoOpenStage),
		stderrors.Is(err, domain.ErrStageClosed):
		middleware.AbortWithAppError(c, errors.ErrConflict(err.Error()))
	case stderrors.As(err, &outOfOrder), stderrors.As(err, &gateBlocked):
		middleware.AbortWithAppError(c, errors.ErrConflict(err.Error()))
	case stderrors.Is(err, domain.ErrInvalidQuantity),
		stderrors.Is(err, domain.ErrInvalidStatus),
		stderrors.Is(err, domain.ErrUnknownProductType):
		middleware.AbortWithAppError(c, errors.ErrBadRequest(err.Error()))
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		middleware.AbortWithAppError(c, errors.ErrTimeout("operation"))
	default:
		middleware.AbortWithAppError(c, errors.ErrInternal("").Wrap(err))
	}
}

// HTTP Handlers

func createUnitHandler(service *application.LifecycleService, business *middleware.BusinessMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateUnitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		unit, err := service.CreateUnit(c.Request.Context(), application.CreateUnitCommand{
			ProductType:       req.ProductType,
			Barcode:           req.Barcode,
			OrderID:           req.OrderID,
			Quantity:          req.Quantity,
			Operator:          req.Operator,
			Location:          req.Location,
			EstimatedDelivery: req.EstimatedDelivery,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		business.RecordUnitCreated(unit.ProductType)
		c.JSON(http.StatusCreated, dto.ToUnitResponse(unit))
	}
}

func getUnitHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		unit, err := service.GetUnit(c.Request.Context(), c.Param("unitId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToUnitResponse(unit))
	}
}

func getUnitsForOrderHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		units, err := service.GetUnitsForOrder(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondError(c, err)
			return
		}

		resp := dto.UnitListResponse{
			Units: make([]dto.UnitSummary, len(units)),
			Total: len(units),
		}
		for i, u := range units {
			resp.Units[i] = dto.ToUnitSummary(u)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getSummaryHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := service.Summarize(c.Request.Context(), c.Param("unitId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func getHistoryHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		unitID := c.Param("unitId")
		events, err := service.GetHistory(c.Request.Context(), unitID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.HistoryResponse{
			UnitID: unitID,
			Events: dto.ToTransitionEvents(events),
		})
	}
}

func startStageHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.StartStageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		unit, err := service.StartStage(c.Request.Context(), application.StartStageCommand{
			UnitID:       c.Param("unitId"),
			Stage:        req.Stage,
			PlannedStart: req.PlannedStart,
			PlannedEnd:   req.PlannedEnd,
			Operator:     req.Operator,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToTransitionResponse(unit))
	}
}

func recordTransitionHandler(service *application.LifecycleService, business *middleware.BusinessMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RecordTransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		unit, err := service.RecordTransition(c.Request.Context(), application.RecordTransitionCommand{
			UnitID:       c.Param("unitId"),
			NewStage:     req.NewStage,
			NewStatus:    req.NewStatus,
			Operator:     req.Operator,
			Location:     req.Location,
			Notes:        req.Notes,
			Timestamp:    req.Timestamp,
			LateReason:   req.LateReason,
			CostIncurred: req.CostIncurred,
			PlannedStart: req.PlannedStart,
			PlannedEnd:   req.PlannedEnd,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		recordTransitionMetrics(business, unit)
		logger.StageTransition(c.Request.Context(), unit.UnitID, lastStageFrom(unit), unit.CurrentStage, lastStageLate(unit))
		c.JSON(http.StatusOK, dto.ToTransitionResponse(unit))
	}
}

func freezeUnitHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.FreezeUnitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		unit, err := service.FreezeForReview(c.Request.Context(), application.FreezeUnitCommand{
			UnitID:   c.Param("unitId"),
			Operator: req.Operator,
			Reason:   req.Reason,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToTransitionResponse(unit))
	}
}

func setCheckpointHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SetCheckpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		gate, err := service.SetCheckpoint(c.Request.Context(), application.SetCheckpointCommand{
			UnitID:     c.Param("unitId"),
			Stage:      req.Stage,
			Checkpoint: req.Checkpoint,
			Passed:     *req.Passed,
			Remarks:    req.Remarks,
			CheckedBy:  req.CheckedBy,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.CheckpointResponse{
			UnitID: c.Param("unitId"),
			Stage:  req.Stage,
			Gate:   gate,
		})
	}
}

func evaluateGateHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		unitID := c.Param("unitId")
		stage := c.Param("stage")

		gate, err := service.EvaluateGate(c.Request.Context(), unitID, stage)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.CheckpointResponse{
			UnitID: unitID,
			Stage:  stage,
			Gate:   gate,
		})
	}
}

func allocateMaterialHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.AllocateMaterialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := service.AllocateMaterial(c.Request.Context(), application.AllocateMaterialCommand{
			UnitID:      c.Param("unitId"),
			Stage:       req.Stage,
			Item:        req.Item,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			AllocatedBy: req.AllocatedBy,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "allocated"})
	}
}

func recordConsumptionHandler(service *application.LifecycleService, business *middleware.BusinessMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RecordConsumptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		warning, err := service.RecordConsumption(c.Request.Context(), application.RecordConsumptionCommand{
			UnitID:     c.Param("unitId"),
			Stage:      req.Stage,
			Item:       req.Item,
			Quantity:   req.Quantity,
			Unit:       req.Unit,
			RecordedBy: req.RecordedBy,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if warning != nil {
			business.RecordMaterialOverrun(req.Stage)
			logger.Warn("Material over-consumption recorded",
				"unitId", c.Param("unitId"),
				"stage", req.Stage,
				"item", req.Item,
				"allocated", warning.Allocated,
				"consumed", warning.Consumed,
			)
		}
		c.JSON(http.StatusOK, dto.ConsumptionResponse{
			UnitID:  c.Param("unitId"),
			Stage:   req.Stage,
			Warning: warning,
		})
	}
}

func getMaterialHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		unitID := c.Param("unitId")
		stages, err := service.GetMaterialSummary(c.Request.Context(), unitID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MaterialResponse{
			UnitID: unitID,
			Stages: stages,
		})
	}
}

func recordReworkHandler(service *application.LifecycleService, business *middleware.BusinessMetrics, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RecordReworkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		attempt, err := service.RecordRework(c.Request.Context(), application.RecordReworkCommand{
			UnitID:         c.Param("unitId"),
			Stage:          req.Stage,
			Reason:         req.Reason,
			FailedQuantity: req.FailedQuantity,
			Cost:           req.Cost,
			RecordedBy:     req.RecordedBy,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		business.RecordRework(req.Stage)
		c.JSON(http.StatusCreated, dto.ReworkResponse{
			UnitID:  c.Param("unitId"),
			Stage:   req.Stage,
			Attempt: dto.ToReworkAttemptDTO(*attempt),
		})
	}
}

func stageCountsHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := service.StageCounts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stages": counts})
	}
}

func recentTransitionsHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		transitions, err := service.RecentTransitions(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transitions": transitions, "total": len(transitions)})
	}
}

func overdueUnitsHandler(service *application.LifecycleService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		units, err := service.OverdueUnits(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"units": units, "total": len(units)})
	}
}

// recordTransitionMetrics records the transition outcome and lateness of the
// stage that just closed
func recordTransitionMetrics(business *middleware.BusinessMetrics, unit *domain.UnitOfWork) {
	from := lastStageFrom(unit)
	if from == "" {
		return
	}

	outcome := "advanced"
	if unit.Status.IsTerminal() {
		outcome = string(unit.Status)
	} else if unit.Status == domain.UnitStatusOnHold {
		outcome = "on_hold"
	}
	business.RecordStageTransition(from, outcome)

	if lastStageLate(unit) {
		business.RecordUnitLate(from)
	}
}

func lastStageFrom(unit *domain.UnitOfWork) string {
	if len(unit.History) == 0 {
		return ""
	}
	return unit.History[len(unit.History)-1].StageFrom
}

func lastStageLate(unit *domain.UnitOfWork) bool {
	from := lastStageFrom(unit)
	if from == "" {
		return false
	}
	si := unit.Stage(from)
	return si != nil && si.IsLate
}
