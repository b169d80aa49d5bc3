package auth

import (
	"context"
	"errors"
	"fmt"

	"nutrition-insights/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisUserRepository 以 Redis 存放使用者文件，email 索引以 SETNX 保證唯一
type RedisUserRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisUserRepository 創建 Redis 使用者資料表
func NewRedisUserRepository(client *redis.Client, keyPrefix string) *RedisUserRepository {
	return &RedisUserRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisUserRepository) userKey(id string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, id)
}

func (r *RedisUserRepository) emailKey(email string) string {
	return fmt.Sprintf("%s:email:%s", r.keyPrefix, email)
}

// FindByEmail 先查 email 索引，再讀使用者文件
func (r *RedisUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, common.NewDependencyError("failed to read user index", err)
	}

	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, common.NewDependencyError("failed to read user", err)
	}

	var u User
	if err := common.ParseJSONBytes(data, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &u, nil
}

// Create 建立使用者
func (r *RedisUserRepository) Create(ctx context.Context, user *User) error {
	data, err := common.ToJSONBytes(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return common.NewDependencyError("failed to reserve email", err)
	}
	if !ok {
		return common.NewConflictError("email already registered")
	}

	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		// 釋放 email 索引，避免留下指向不存在使用者的鍵
		r.client.Del(ctx, r.emailKey(user.Email))
		return common.NewDependencyError("failed to write user", err)
	}
	return nil
}
