package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nutrition-insights/internal/infrastructure/bootstrap"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "local CSV file to upload as the raw dataset")
	rawName := flag.String("raw", "", "raw blob name (defaults to blob.raw_name)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	name := cfg.Blob.RawName
	if *rawName != "" {
		name = *rawName
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	// 記憶體快取只存在於本行程，API 行程讀不到
	app.Ingest.SetStandalone(true)
	if cfg.Store.Backend == "memory" {
		common.LogWarn("store.backend is memory; the running API will not see the refreshed insights cache",
			zap.String("store_backend", cfg.Store.Backend),
		)
	}

	// 未指定檔案時直接處理物件儲存中現有的原始檔
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			common.LogFatal("Failed to read input file", zap.String("file", *file), zap.Error(err))
		}
		if err := app.Blobs.Upload(ctx, name, data, "text/csv"); err != nil {
			common.LogFatal("Failed to upload raw dataset", zap.String("raw_name", name), zap.Error(err))
		}
	}

	report, err := app.Ingest.Run(ctx, name)
	if err != nil {
		common.LogFatal("Ingest failed", zap.String("raw_name", name), zap.Error(err))
	}

	fmt.Printf("ingested %s -> %s: %d raw rows, %d clean rows, %d records, cache saved: %t (%s)\n",
		report.RawName, report.CleanName, report.RawRows, report.CleanRows, report.Rows,
		report.CacheSaved, report.Duration)
}
