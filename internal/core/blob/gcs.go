package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"nutrition-insights/internal/infrastructure/config"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore 以 GCS bucket 作為物件儲存
// connection string 若有值，視為 service account 憑證檔路徑
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore 創建 GCS 物件儲存
func NewGCSStore(ctx context.Context, cfg config.BlobConfig) (*GCSStore, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("gcs bucket (blob container) is required")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.ConnectionString != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.ConnectionString))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: cfg.Container,
	}, nil
}

// Download 下載物件
func (s *GCSStore) Download(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}

// Upload 上傳物件
func (s *GCSStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// Close 關閉 GCS 客戶端
func (s *GCSStore) Close() error {
	return s.client.Close()
}
