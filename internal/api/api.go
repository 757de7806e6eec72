package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/api/handlers"
	"github.com/andresuchdata/eco-inventory/internal/api/middleware"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	RebalanceService *service.RebalanceService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.RebalanceService != nil {
		h := handlers.NewRebalanceHandler(services.RebalanceService)

		apiGroup.GET("/health", h.Health)
		apiGroup.GET("/products", h.GetProducts)
		apiGroup.GET("/inventory/all", h.GetInventory)
		apiGroup.POST("/purchase", h.Purchase)
		apiGroup.POST("/transfer", h.Transfer)
		apiGroup.POST("/feedback", h.SubmitFeedback)

		storeGroup := apiGroup.Group("/stores")
		{
			storeGroup.GET("", h.GetStores)
			storeGroup.GET("/:id/analytics", h.GetStoreAnalytics)
			storeGroup.POST("/:id/affinity", h.RebuildAffinity)
			storeGroup.GET("/:id/feedback", h.GetStoreFeedback)
		}

		recGroup := apiGroup.Group("/recommendations")
		{
			recGroup.GET("", h.GetRecommendations)
			recGroup.POST("/refresh", h.RefreshRecommendations)
			recGroup.POST("/:id/approve", h.ApproveRecommendation)
			recGroup.POST("/:id/reject", h.RejectRecommendation)
		}

		analyticsGroup := apiGroup.Group("/analytics")
		{
			analyticsGroup.GET("/forecast", h.GetForecast)
			analyticsGroup.GET("/forecast/status", h.GetForecastStatus)
			analyticsGroup.POST("/forecast/retrain", h.RetrainForecast)
			analyticsGroup.GET("/anomalies", h.GetAnomalies)
		}

		reportGroup := apiGroup.Group("/reports")
		{
			reportGroup.GET("", h.ListReports)
			reportGroup.GET("/recommendations.csv", h.DownloadReport)
			reportGroup.GET("/recommendations.xlsx", h.DownloadSpreadsheet)
			reportGroup.POST("/recommendations/upload", h.UploadReport)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
