package store

import (
	"context"
	"errors"
	"fmt"

	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore 以 Redis 作為文件儲存，文件以 JSON 存放
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore 創建 Redis 文件儲存並測試連線
func NewRedisStore(ctx context.Context, cfg config.StoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix+":"+cfg.MetricsContainer), nil
}

// NewRedisStoreWithClient 使用既有客戶端
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// generateKey 生成文件鍵
func (s *RedisStore) generateKey(id string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, id)
}

// Get 讀取文件
func (s *RedisStore) Get(ctx context.Context, id string, out interface{}) error {
	data, err := s.client.Get(ctx, s.generateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := common.ParseJSONBytes(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// Put 寫入文件（不設過期）
func (s *RedisStore) Put(ctx context.Context, id string, doc interface{}) error {
	data, err := common.ToJSONBytes(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.Set(ctx, s.generateKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Ping 檢查連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
