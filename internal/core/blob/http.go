package blob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPStore 透過 REST 存取容器層級 SAS URL 的物件儲存
// connection string 形如 https://<account>.blob.core.windows.net/<container>?<sas>
type HTTPStore struct {
	client *resty.Client
	base   *url.URL
}

// NewHTTPStore 創建 REST 物件儲存
func NewHTTPStore(containerURL string) (*HTTPStore, error) {
	base, err := url.Parse(containerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob connection string: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid blob connection string scheme %q", base.Scheme)
	}

	client := resty.New().
		SetTimeout(2*time.Minute).
		SetHeader("x-ms-version", "2021-08-06")

	return &HTTPStore{
		client: client,
		base:   base,
	}, nil
}

// objectURL 組合物件 URL，保留 SAS 查詢參數
func (s *HTTPStore) objectURL(name string) string {
	u := *s.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(name, "/")
	return u.String()
}

// Download 下載物件
func (s *HTTPStore) Download(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(s.objectURL(name))
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to download blob: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// Upload 以 BlockBlob 形式上傳
func (s *HTTPStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("x-ms-blob-type", "BlockBlob").
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Put(s.objectURL(name))
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to upload blob: status %d", resp.StatusCode())
	}
	return nil
}

// Close 無需釋放資源
func (s *HTTPStore) Close() error {
	return nil
}
