package ingest

import (
	"context"
	"fmt"
	"time"

	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/core/insights"
	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

// Report 一次匯入的結果
type Report struct {
	RawName    string        `json:"rawName"`
	CleanName  string        `json:"cleanName"`
	RawRows    int           `json:"rawRows"`
	CleanRows  int           `json:"cleanRows"`
	Rows       int           `json:"rows"`
	CacheSaved bool          `json:"cacheSaved"`
	Duration   time.Duration `json:"duration"`
}

// Service 原始資料集上傳後的清理流程：
// 下載 → 去空列/重複列 → 正規化 → 寫回清理檔 → 重新計算洞察快取
type Service struct {
	blobs      blob.Store
	loader     *dataset.Loader
	insights   *insights.Service
	standalone bool
}

// NewService 創建匯入服務
func NewService(blobs blob.Store, loader *dataset.Loader, insightsSvc *insights.Service) *Service {
	return &Service{
		blobs:    blobs,
		loader:   loader,
		insights: insightsSvc,
	}
}

// SetStandalone 標記為獨立行程執行（不與 API 共用記憶體）
// 此時行程內的快取不會更新，報告中 CacheSaved 為 false
func (s *Service) SetStandalone(standalone bool) {
	s.standalone = standalone
}

// Run 執行一次匯入；快取寫入失敗只記錄，不影響清理結果
func (s *Service) Run(ctx context.Context, rawName string) (*Report, error) {
	start := time.Now()

	data, err := s.blobs.Download(ctx, rawName)
	if err != nil {
		return nil, fmt.Errorf("failed to download raw dataset %q: %w", rawName, err)
	}

	raw, err := dataset.ParseCSV(data)
	if err != nil {
		return nil, common.NewError(common.KindValidation, "invalid csv", err)
	}
	cleaned := dataset.Clean(raw)

	records, err := dataset.Normalize(cleaned)
	if err != nil {
		return nil, err
	}
	records = dataset.Dedup(records)

	if err := s.loader.Save(ctx, records); err != nil {
		return nil, err
	}

	report := &Report{
		RawName:   rawName,
		CleanName: s.loader.Name(),
		RawRows:   len(raw.Rows),
		CleanRows: len(cleaned.Rows),
		Rows:      len(records),
	}

	if s.standalone && s.insights.Cached() && !s.insights.Shared() {
		common.LogWarn("Insights cache is process-local, skipping refresh",
			zap.String("raw_name", rawName),
		)
	} else if _, err := s.insights.Refresh(ctx, records); err != nil {
		common.LogError("Failed to refresh insights cache",
			zap.String("raw_name", rawName),
			zap.Error(err),
		)
	} else {
		report.CacheSaved = s.insights.Cached()
	}

	report.Duration = time.Since(start)
	common.LogInfo("資料集匯入完成",
		zap.String("raw_name", rawName),
		zap.Int("raw_rows", report.RawRows),
		zap.Int("clean_rows", report.CleanRows),
		zap.Int("rows", report.Rows),
		zap.Bool("cache_saved", report.CacheSaved),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
