package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nutrition-insights/internal/infrastructure/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := s.Upload(ctx, "raw/All_Diets.csv", []byte("a,b\n1,2\n"), "text/csv"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	data, err := s.Download(ctx, "raw/All_Diets.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Fatalf("Download = %q", data)
	}
}

func TestLocalStoreNotFound(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := s.Download(context.Background(), "missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if err := s.Upload(context.Background(), "../escape.csv", []byte("x"), ""); err == nil {
		t.Fatalf("expected error for path traversal")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), config.BlobConfig{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestHTTPStore(t *testing.T) {
	var (
		mu      sync.Mutex
		objects = map[string][]byte{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sig") != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			if r.Header.Get("x-ms-blob-type") != "BlockBlob" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			body, ok := objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(body)
		}
	}))
	defer srv.Close()

	s, err := NewHTTPStore(srv.URL + "/datasets?sig=abc")
	if err != nil {
		t.Fatalf("NewHTTPStore: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "All_Diets.csv", []byte("diet_type\nketo\n"), "text/csv"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	mu.Lock()
	_, stored := objects["/datasets/All_Diets.csv"]
	mu.Unlock()
	if !stored {
		t.Fatalf("object not stored under container path")
	}

	data, err := s.Download(ctx, "All_Diets.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "diet_type\nketo\n" {
		t.Fatalf("Download = %q", data)
	}

	if _, err := s.Download(ctx, "missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNewHTTPStoreRejectsBadScheme(t *testing.T) {
	if _, err := NewHTTPStore("ftp://example.com/container"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestS3StoreDownload(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/bucket/All_Diets.csv" {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("diet_type\nketo\n"))
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
	}))
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3Store(ctx, config.BlobConfig{
		Container: "bucket",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}

	data, err := s.Download(ctx, "All_Diets.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "diet_type\nketo\n" {
		t.Fatalf("Download = %q", data)
	}

	if _, err := s.Download(ctx, "missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
