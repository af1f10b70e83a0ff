package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ecoverse/backend/internal/handlers"
	"github.com/ecoverse/backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	AuthMiddleware *middleware.AuthMiddleware

	AuthHandler           *handlers.AuthHandler
	UserHandler           *handlers.UserHandler
	CatalogHandler        *handlers.CatalogHandler
	ActivityHandler       *handlers.ActivityHandler
	DashboardHandler      *handlers.DashboardHandler
	AnalysisHandler       *handlers.AnalysisHandler
	InsightHandler        *handlers.InsightHandler
	RecommendationHandler *handlers.RecommendationHandler
	DatasetHandler        *handlers.DatasetHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/calculate", cfg.CatalogHandler.Calculate)
		api.GET("/categories", cfg.CatalogHandler.Categories)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// Activities
	protected.POST("/activities", cfg.ActivityHandler.Log)
	protected.GET("/activities", cfg.ActivityHandler.List)
	protected.DELETE("/activities", cfg.ActivityHandler.Clear)
	// Dashboard
	protected.GET("/dashboard", cfg.DashboardHandler.Summary)
	protected.GET("/stats/trends", cfg.DashboardHandler.Trends)
	// Analysis
	protected.POST("/analyze", cfg.AnalysisHandler.Analyze)
	protected.GET("/insights", cfg.InsightHandler.List)
	protected.GET("/recommendations", cfg.RecommendationHandler.List)
	protected.PATCH("/recommendations/:id/status", cfg.RecommendationHandler.UpdateStatus)
	// Datasets
	protected.GET("/datasets/summary", cfg.DatasetHandler.Summary)
	protected.GET("/datasets/insights", cfg.DatasetHandler.Insights)
	protected.GET("/datasets/benchmarks", cfg.DatasetHandler.Benchmarks)

	return router
}

// ParseOrigins splits a comma-separated origin list from the environment.
func ParseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
