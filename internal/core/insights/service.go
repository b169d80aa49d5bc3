package insights

import (
	"context"
	"errors"
	"time"

	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/core/store"
	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

// RecordLoader 取得正規化資料集
type RecordLoader interface {
	Load(ctx context.Context) ([]dataset.Record, error)
}

// Service 洞察服務：先讀快取，未命中或儲存不可用時即時計算
type Service struct {
	docs       store.DocumentStore
	loader     RecordLoader
	docID      string
	sampleSize int
	seed       uint64
	now        func() time.Time
}

// NewService 創建洞察服務；docs 可為 nil（未設定文件儲存）
func NewService(docs store.DocumentStore, loader RecordLoader, docID string, sampleSize int, seed uint64) *Service {
	return &Service{
		docs:       docs,
		loader:     loader,
		docID:      docID,
		sampleSize: sampleSize,
		seed:       seed,
		now:        time.Now,
	}
}

// Cached 是否設定了文件儲存
func (s *Service) Cached() bool {
	return s.docs != nil
}

// Shared 文件儲存是否可被其他行程讀取
func (s *Service) Shared() bool {
	return s.docs != nil && !store.ProcessLocal(s.docs)
}

// Options 目前的彙總參數
func (s *Service) Options() Options {
	return Options{
		SampleSize: s.sampleSize,
		Seed:       s.seed,
		Now:        s.now(),
	}
}

// Get 取得洞察結果
func (s *Service) Get(ctx context.Context, diet string) (*Document, error) {
	if s.docs != nil {
		var cached Document
		err := s.docs.Get(ctx, s.docID, &cached)
		if err == nil {
			common.LogCacheHit("insights", s.docID)
			doc := FilterCached(&cached, diet)
			doc.ID = ""
			doc.Meta.Source = SourceCache
			return doc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			common.LogWarn("Insights cache unavailable, falling back to live computation",
				zap.String("doc_id", s.docID),
				zap.Error(common.NewDependencyError("document store", err)),
			)
		}
		common.LogCacheMiss("insights", s.docID, err)
	}

	records, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	doc := Aggregate(records, diet, s.Options())
	doc.Meta.Source = SourceLive
	return doc, nil
}

// Refresh 計算完整（未篩選）的洞察並覆寫快取
// 回傳的錯誤僅代表快取寫入失敗，由呼叫端決定是否忽略
func (s *Service) Refresh(ctx context.Context, records []dataset.Record) (*Document, error) {
	doc := Aggregate(records, "", s.Options())
	doc.ID = s.docID

	if s.docs == nil {
		return doc, nil
	}
	if err := s.docs.Put(ctx, s.docID, doc); err != nil {
		return doc, common.NewDependencyError("failed to write insights cache", err)
	}
	common.LogInfo("洞察快取已更新",
		zap.String("doc_id", s.docID),
		zap.Int("rows", doc.Meta.Rows),
		zap.Int("diet_types", len(doc.PieChart)),
	)
	return doc, nil
}
