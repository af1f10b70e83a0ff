package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ecoverse/backend/internal/db"
	"github.com/ecoverse/backend/internal/factors"
	"github.com/ecoverse/backend/internal/handlers"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/middleware"
	"github.com/ecoverse/backend/internal/repos"
	"github.com/ecoverse/backend/internal/server"
	"github.com/ecoverse/backend/internal/services"
	"github.com/ecoverse/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	dataDir := utils.GetEnv("DATA_DIR", "data", log)
	factorsPath := utils.GetEnv("FACTORS_PATH", "", log)
	trendThreshold := utils.GetEnvAsFloat("TREND_THRESHOLD", 0.05, log)

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	activityRepo := repos.NewActivityRepo(theDB, log)
	insightRepo := repos.NewInsightRepo(theDB, log)
	recommendationRepo := repos.NewRecommendationRepo(theDB, log)

	// Emission factors
	factorTable := factors.Default()
	if factorsPath != "" {
		loaded, err := factors.Load(factorsPath)
		if err != nil {
			log.Warn("Failed to load factor overrides, using defaults", "path", factorsPath, "error", err)
		} else {
			factorTable = loaded
		}
	}

	// Services
	log.Info("Setting up services from main...")
	cache := services.NewCacheFromEnv(log)
	calculatorService := services.NewCalculatorService(log, factorTable)
	activityService := services.NewActivityService(theDB, log, activityRepo, calculatorService, cache)
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(theDB, log, userRepo)
	dashboardService := services.NewDashboardService(theDB, log, activityRepo, insightRepo, recommendationRepo, cache, trendThreshold)
	insightService := services.NewInsightService(theDB, log, insightRepo)
	recommendationService := services.NewRecommendationService(theDB, log, recommendationRepo)

	datasetService := services.NewDatasetService(dataDir, log)
	if err := datasetService.Load(context.Background()); err != nil {
		log.Warn("Dataset loading interrupted", "error", err)
	}

	textGenClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Warn("GeminiClient unavailable, analysis narratives disabled", "error", err)
		textGenClient = services.NewDisabledTextGenClient(log)
	}
	analysisService := services.NewAnalysisService(theDB, log, userRepo, activityRepo,
		insightRepo, recommendationRepo, datasetService, textGenClient, cache)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(calculatorService)
	activityHandler := handlers.NewActivityHandler(activityService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	insightHandler := handlers.NewInsightHandler(insightService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	datasetHandler := handlers.NewDatasetHandler(datasetService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:          server.ParseOrigins(os.Getenv("CORS_ALLOW_ORIGINS")),
		AuthMiddleware:        authMiddleware,
		AuthHandler:           authHandler,
		UserHandler:           userHandler,
		CatalogHandler:        catalogHandler,
		ActivityHandler:       activityHandler,
		DashboardHandler:      dashboardHandler,
		AnalysisHandler:       analysisHandler,
		InsightHandler:        insightHandler,
		RecommendationHandler: recommendationHandler,
		DatasetHandler:        datasetHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
