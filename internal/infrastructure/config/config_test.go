package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Blob.Backend != "local" || cfg.Blob.RawName != "All_Diets.csv" || cfg.Blob.CleanName != "All_Diets_clean.csv" {
		t.Fatalf("blob = %+v", cfg.Blob)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.InsightsDocID != "nutrition-insights" || cfg.Store.MemoryTTL != 0 {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Auth.TokenTTL != 60*time.Minute || !cfg.UsesDevSecret() {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Dataset.SampleSize != 300 || cfg.Dataset.SampleSeed != 42 || cfg.Dataset.ClusterSeed != 42 {
		t.Fatalf("dataset = %+v", cfg.Dataset)
	}
	if cfg.Dataset.DefaultK != 3 || cfg.Dataset.DefaultPageSize != 10 {
		t.Fatalf("dataset = %+v", cfg.Dataset)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("BLOB_NAME", "clean.csv")
	t.Setenv("BLOB_RAW_NAME", "raw.csv")
	t.Setenv("STORE_BACKEND", "none")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("APP_DATASET_SAMPLE_SIZE", "50")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Blob.CleanName != "clean.csv" || cfg.Blob.RawName != "raw.csv" {
		t.Fatalf("blob = %+v", cfg.Blob)
	}
	if cfg.Store.Backend != "none" {
		t.Fatalf("store backend = %q", cfg.Store.Backend)
	}
	if cfg.UsesDevSecret() || cfg.Auth.JWTSecret != "prod-secret" {
		t.Fatalf("jwt secret not overridden")
	}
	if cfg.Dataset.SampleSize != 50 {
		t.Fatalf("sample size = %d, want 50", cfg.Dataset.SampleSize)
	}
}

func TestLoadConfigCleanNameAlias(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLOB_CLEAN_NAME", "alias_clean.csv")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Blob.CleanName != "alias_clean.csv" {
		t.Fatalf("clean name = %q, want alias_clean.csv", cfg.Blob.CleanName)
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("USERS_BACKEND=redis\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("USERS_BACKEND") })

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Users.Backend != "redis" {
		t.Fatalf("users backend = %q, want redis", cfg.Users.Backend)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLOB_BACKEND", "ftp")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown blob backend")
	}
}
