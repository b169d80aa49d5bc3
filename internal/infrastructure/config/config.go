package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret 開發用預設簽章密鑰，正式環境必須覆寫
const DevJWTSecret = "dev-secret-change-me"

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Blob        BlobConfig      `mapstructure:"blob"`
	Store       StoreConfig     `mapstructure:"store"`
	Users       UsersConfig     `mapstructure:"users"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Dataset     DatasetConfig   `mapstructure:"dataset"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// BlobConfig 原始/清理後資料集的物件儲存設定
type BlobConfig struct {
	Backend          string `mapstructure:"backend"` // local | http | s3 | gcs
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
	RawName          string `mapstructure:"raw_name"`
	CleanName        string `mapstructure:"clean_name"`
	LocalDir         string `mapstructure:"local_dir"`
	Region           string `mapstructure:"region"`
	Endpoint         string `mapstructure:"endpoint"`
}

// StoreConfig 文件儲存（洞察快取）設定
type StoreConfig struct {
	Backend          string        `mapstructure:"backend"` // redis | memory | none
	RedisAddr        string        `mapstructure:"redis_addr"`
	RedisPassword    string        `mapstructure:"redis_password"`
	RedisDB          int           `mapstructure:"redis_db"`
	KeyPrefix        string        `mapstructure:"key_prefix"`
	MetricsContainer string        `mapstructure:"metrics_container"`
	InsightsDocID    string        `mapstructure:"insights_doc_id"`
	MemoryTTL        time.Duration `mapstructure:"memory_ttl"`
	MemoryMaxSize    int           `mapstructure:"memory_max_size"`
}

// UsersConfig 使用者資料表設定
type UsersConfig struct {
	Backend     string `mapstructure:"backend"` // redis | postgres | memory
	Container   string `mapstructure:"container"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// AuthConfig 認證設定
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// DatasetConfig 分析參數
type DatasetConfig struct {
	SampleSize      int    `mapstructure:"sample_size"`
	SampleSeed      uint64 `mapstructure:"sample_seed"`
	ClusterSeed     uint64 `mapstructure:"cluster_seed"`
	DefaultK        int    `mapstructure:"default_k"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
	MaxIterations   int    `mapstructure:"max_iterations"`
}

// QueueConfig 匯入任務隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

var (
	blobBackends  = map[string]bool{"local": true, "http": true, "s3": true, "gcs": true}
	storeBackends = map[string]bool{"redis": true, "memory": true, "none": true}
	userBackends  = map[string]bool{"redis": true, "postgres": true, "memory": true}
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定部署平台沿用的環境變數名稱
func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("blob.backend", "BLOB_BACKEND")
	v.BindEnv("blob.connection_string", "BLOB_CONN_STR")
	v.BindEnv("blob.container", "BLOB_CONTAINER")
	v.BindEnv("blob.clean_name", "BLOB_NAME", "BLOB_CLEAN_NAME")
	v.BindEnv("blob.raw_name", "BLOB_RAW_NAME")
	v.BindEnv("blob.local_dir", "BLOB_LOCAL_DIR")
	v.BindEnv("blob.region", "BLOB_REGION")
	v.BindEnv("blob.endpoint", "BLOB_ENDPOINT")
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("store.redis_addr", "REDIS_ADDR")
	v.BindEnv("store.redis_password", "REDIS_PASSWORD")
	v.BindEnv("store.metrics_container", "METRICS_CONTAINER")
	v.BindEnv("users.backend", "USERS_BACKEND")
	v.BindEnv("users.container", "USERS_CONTAINER")
	v.BindEnv("users.postgres_dsn", "POSTGRES_DSN")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("dedup_window", "DEDUP_WINDOW")
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "nutrition-insights")
	v.SetDefault("log_level", "info")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 50<<20) // 50MB

	// 物件儲存
	v.SetDefault("blob.backend", "local")
	v.SetDefault("blob.container", "datasets")
	v.SetDefault("blob.raw_name", "All_Diets.csv")
	v.SetDefault("blob.clean_name", "All_Diets_clean.csv")
	v.SetDefault("blob.local_dir", "data")

	// 文件儲存
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.key_prefix", "nutrition")
	v.SetDefault("store.metrics_container", "metrics")
	v.SetDefault("store.insights_doc_id", "nutrition-insights")
	v.SetDefault("store.memory_ttl", "0s")
	v.SetDefault("store.memory_max_size", 100)

	// 使用者
	v.SetDefault("users.backend", "memory")
	v.SetDefault("users.container", "users")

	// 認證
	v.SetDefault("auth.jwt_secret", DevJWTSecret)
	v.SetDefault("auth.token_ttl", "60m")
	v.SetDefault("auth.bcrypt_cost", 10)

	// 分析參數
	v.SetDefault("dataset.sample_size", 300)
	v.SetDefault("dataset.sample_seed", 42)
	v.SetDefault("dataset.cluster_seed", 42)
	v.SetDefault("dataset.default_k", 3)
	v.SetDefault("dataset.default_page_size", 10)
	v.SetDefault("dataset.max_iterations", 300)

	// 隊列設定
	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.max_size", 16)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if !blobBackends[config.Blob.Backend] {
		return fmt.Errorf("unknown blob backend %q", config.Blob.Backend)
	}
	if config.Blob.Backend == "http" && config.Blob.ConnectionString == "" {
		return fmt.Errorf("blob connection string is required for http backend")
	}
	if !storeBackends[config.Store.Backend] {
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}
	if config.Store.InsightsDocID == "" {
		return fmt.Errorf("insights document id is required")
	}
	if !userBackends[config.Users.Backend] {
		return fmt.Errorf("unknown users backend %q", config.Users.Backend)
	}
	if config.Users.Backend == "postgres" && config.Users.PostgresDSN == "" {
		return fmt.Errorf("postgres dsn is required for postgres users backend")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl")
	}
	if config.Dataset.SampleSize <= 0 {
		return fmt.Errorf("invalid sample size")
	}
	if config.Dataset.DefaultK <= 0 || config.Dataset.DefaultPageSize <= 0 {
		return fmt.Errorf("invalid dataset defaults")
	}
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}
	if config.Store.Backend == "memory" && config.Store.MemoryMaxSize <= 0 {
		return fmt.Errorf("invalid memory store max size")
	}
	return nil
}

// UsesDevSecret 是否仍使用開發用簽章密鑰
func (c *Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == DevJWTSecret
}
