package store

import (
	"context"
	"errors"
	"fmt"

	"nutrition-insights/internal/infrastructure/config"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("document not found")

// DocumentStore 以 id 讀寫 JSON 文件的儲存介面
type DocumentStore interface {
	// Get 讀取文件並解析到 out，不存在時回傳 ErrNotFound
	Get(ctx context.Context, id string, out interface{}) error

	// Put 寫入（覆寫）文件
	Put(ctx context.Context, id string, doc interface{}) error

	// Ping 檢查儲存是否可用
	Ping(ctx context.Context) error

	// Close 關閉連線
	Close() error
}

// ProcessLocal 文件只存在於目前行程，其他行程讀不到
func ProcessLocal(ds DocumentStore) bool {
	_, ok := ds.(*MemoryStore)
	return ok
}

// New 依設定建立文件儲存；backend 為 none 時回傳 nil（未設定）
func New(ctx context.Context, cfg config.StoreConfig) (DocumentStore, error) {
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.MemoryMaxSize, cfg.MemoryTTL), nil
	case "redis":
		s, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
