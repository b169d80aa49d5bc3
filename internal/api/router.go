package api

import (
	"fmt"
	"time"

	"nutrition-insights/internal/api/handlers/auth"
	datasetHandler "nutrition-insights/internal/api/handlers/dataset"
	"nutrition-insights/internal/api/handlers/health"
	"nutrition-insights/internal/api/handlers/nutrition"
	"nutrition-insights/internal/api/middleware"
	authService "nutrition-insights/internal/core/auth"
	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/core/cluster"
	"nutrition-insights/internal/core/ingest"
	"nutrition-insights/internal/core/insights"
	"nutrition-insights/internal/core/store"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由所需的服務
type Services struct {
	Insights *insights.Service
	Records  nutrition.RecordLoader
	Clusters *cluster.Engine
	Auth     *authService.Service
	Blobs    blob.Store
	Queue    *ingest.Queue
	// Docs 可為 nil（未設定文件儲存）
	Docs store.DocumentStore
}

func (s *Services) validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("services are required")
	case s.Insights == nil:
		return fmt.Errorf("insights service is required")
	case s.Records == nil:
		return fmt.Errorf("record loader is required")
	case s.Clusters == nil:
		return fmt.Errorf("cluster engine is required")
	case s.Auth == nil:
		return fmt.Errorf("auth service is required")
	case s.Blobs == nil:
		return fmt.Errorf("blob store is required")
	case s.Queue == nil:
		return fmt.Errorf("ingest queue is required")
	}
	return nil
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	if err := svc.validate(); err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		return nil, err
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, svc.Queue, svc.Docs)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	nutritionHandler := nutrition.NewHandler(svc.Insights, svc.Records, svc.Clusters,
		cfg.Dataset.DefaultK, cfg.Dataset.DefaultPageSize)
	authHandler := auth.NewHandler(svc.Auth)
	uploadHandler := datasetHandler.NewHandler(svc.Blobs, svc.Queue, cfg.Blob.RawName)
	requireAuth := middleware.RequireAuth(svc.Auth)

	// API 路由組
	// 去重只套用在上傳端點；註冊與登入的重複請求須照常回應 400/401
	dedup := middleware.Deduplication(cfg.DedupWindow)

	api := router.Group("/api")
	{
		api.GET("/getNutritionalInsights", nutritionHandler.GetNutritionalInsights)
		api.GET("/getClusters", nutritionHandler.GetClusters)
		api.GET("/getRecipes", nutritionHandler.GetRecipes)

		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/me", requireAuth, authHandler.Me)

		api.POST("/uploadDataset", requireAuth, dedup, uploadHandler.Upload)
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("environment", cfg.App.Env),
		zap.Bool("document_store", svc.Docs != nil),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
