package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-insights/internal/infrastructure/bootstrap"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（.env 為選用）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("blob_backend", cfg.Blob.Backend),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("users_backend", cfg.Users.Backend),
	)
	if cfg.UsesDevSecret() {
		common.LogWarn("JWT_SECRET not set, using insecure development secret")
	}

	// 背景任務使用獨立的上下文，不隨請求結束而取消
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	app, err := bootstrap.Build(jobCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	app.Queue.Start(jobCtx)

	router, err := app.Router(cfg)
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
	}

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	// 排空匯入隊列後再關閉儲存連線
	app.Close()
	common.LogInfo("Server exited")
}
