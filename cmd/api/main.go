package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"travelbudget/internal/cache"
	"travelbudget/internal/config"
	"travelbudget/internal/database"
	"travelbudget/internal/handlers"
	"travelbudget/internal/logger"
	"travelbudget/internal/middleware"
	"travelbudget/internal/services"
	"travelbudget/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "travelbudget/internal/docs" // Import swagger docs
)

// @title           Travel Budget API
// @version         1.0
// @description     Travel Budget is a trip expense tracker that lets users plan trip budgets, record expenses, and review spending statistics and reports.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom validation rules
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Statistics cache: Redis when configured, otherwise a no-op
	var statsCache cache.StatsCache = cache.NewNoop()
	if appConfig.RedisURL != "" {
		redisCache, err := cache.NewRedis(appConfig.RedisURL)
		if err != nil {
			log.Warnf("Redis unavailable, statistics caching disabled: %v", err)
		} else {
			statsCache = redisCache
			log.Info("Statistics cache backed by Redis")
		}
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	tripService := services.NewTripService(db, statsCache)
	reconciler := services.NewBudgetReconciler()
	expenseService := services.NewExpenseService(db, tripService, reconciler, statsCache)
	reportService := services.NewReportService(db, tripService, statsCache)
	auditService := services.NewAuditService(db)

	// Background trip status sweeper
	sweeper := services.NewStatusSweeper(db, appConfig.StatusSweepInterval)
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	defer cancelSweeper()
	sweeper.Start(sweeperCtx)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	tripHandler := handlers.NewTripHandler(tripService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	reportHandler := handlers.NewReportHandler(reportService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Trip routes
	trips := protected.Group("/trips")
	trips.POST("", tripHandler.CreateTrip)
	trips.GET("", tripHandler.GetTrips)
	trips.GET("/:id", tripHandler.GetTrip)
	trips.PUT("/:id", tripHandler.UpdateTrip)
	trips.DELETE("/:id", tripHandler.DeleteTrip)
	trips.GET("/:id/expenses", expenseHandler.GetTripExpenses)
	trips.GET("/:id/statistics", reportHandler.GetStatistics)
	trips.POST("/:id/reports", reportHandler.CreateReport)
	trips.GET("/:id/reports", reportHandler.GetTripReports)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("", reportHandler.GetAllReports)
	reports.POST("/compare", reportHandler.CompareTrips)
	reports.GET("/:id", reportHandler.GetReport)
	reports.DELETE("/:id", reportHandler.DeleteReport)

	log.Infof("Starting travel budget server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
