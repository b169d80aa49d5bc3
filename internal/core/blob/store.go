package blob

import (
	"context"
	"errors"
	"fmt"

	"nutrition-insights/internal/infrastructure/config"
)

// ErrNotFound 物件不存在
var ErrNotFound = errors.New("blob not found")

// Store 物件儲存介面
type Store interface {
	// Download 下載物件完整內容
	Download(ctx context.Context, name string) ([]byte, error)

	// Upload 上傳（覆寫）物件
	Upload(ctx context.Context, name string, data []byte, contentType string) error

	// Close 釋放連線
	Close() error
}

// New 依設定建立物件儲存
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "local":
		s, err = NewLocalStore(cfg.LocalDir)
	case "http":
		s, err = NewHTTPStore(cfg.ConnectionString)
	case "s3":
		s, err = NewS3Store(ctx, cfg)
	case "gcs":
		s, err = NewGCSStore(ctx, cfg)
	default:
		err = fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
