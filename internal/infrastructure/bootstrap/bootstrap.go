package bootstrap

import (
	"context"
	"fmt"

	"nutrition-insights/internal/api"
	"nutrition-insights/internal/core/auth"
	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/core/cluster"
	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/core/ingest"
	"nutrition-insights/internal/core/insights"
	"nutrition-insights/internal/core/store"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// App 組裝完成的服務集合
type App struct {
	Blobs    blob.Store
	Docs     store.DocumentStore
	Loader   *dataset.Loader
	Insights *insights.Service
	Clusters *cluster.Engine
	Auth     *auth.Service
	Ingest   *ingest.Service
	Queue    *ingest.Queue

	closers []func() error
}

// Build 依設定建立所有依賴；文件儲存連線失敗時以未設定處理
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	app.Blobs = blobs
	app.closers = append(app.closers, blobs.Close)

	docs, err := store.New(ctx, cfg.Store)
	if err != nil {
		common.LogWarn("Document store unavailable, insights cache disabled",
			zap.String("backend", cfg.Store.Backend),
			zap.Error(err),
		)
	}
	if docs != nil {
		app.Docs = docs
		app.closers = append(app.closers, docs.Close)
	}

	users, err := app.buildUsers(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Loader = dataset.NewLoader(blobs, cfg.Blob.CleanName)
	app.Insights = insights.NewService(app.Docs, app.Loader, cfg.Store.InsightsDocID,
		cfg.Dataset.SampleSize, cfg.Dataset.SampleSeed)
	app.Clusters = cluster.NewEngine(cfg.Dataset.ClusterSeed, cfg.Dataset.MaxIterations)
	app.Auth = auth.NewService(users, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth.BcryptCost)
	app.Ingest = ingest.NewService(blobs, app.Loader, app.Insights)
	app.Queue = ingest.NewQueue(app.Ingest.Run, cfg.Queue.Workers, cfg.Queue.MaxSize)

	common.LogInfo("Services initialized",
		zap.String("blob_backend", cfg.Blob.Backend),
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("store_configured", app.Docs != nil),
		zap.String("users_backend", cfg.Users.Backend),
	)
	return app, nil
}

func (a *App) buildUsers(ctx context.Context, cfg *config.Config) (auth.UserRepository, error) {
	switch cfg.Users.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis for users: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return auth.NewRedisUserRepository(client, cfg.Store.KeyPrefix+":"+cfg.Users.Container), nil
	case "postgres":
		db, err := auth.OpenPostgres(cfg.Users.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return auth.NewGormUserRepository(db)
	default:
		return auth.NewMemoryUserRepository(), nil
	}
}

// Router 建立 HTTP 路由
func (a *App) Router(cfg *config.Config) (*gin.Engine, error) {
	return api.SetupRouter(cfg, &api.Services{
		Insights: a.Insights,
		Records:  a.Loader,
		Clusters: a.Clusters,
		Auth:     a.Auth,
		Blobs:    a.Blobs,
		Queue:    a.Queue,
		Docs:     a.Docs,
	})
}

// Close 先排空匯入隊列，再依建立的相反順序關閉資源
func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			common.LogWarn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
