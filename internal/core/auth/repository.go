package auth

import (
	"context"
	"errors"
	"sync"

	"nutrition-insights/internal/pkg/common"
)

// ErrUserNotFound 使用者不存在
var ErrUserNotFound = errors.New("user not found")

// UserRepository 使用者資料表
type UserRepository interface {
	// FindByEmail 以小寫 email 查詢，不存在時回傳 ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create 建立使用者，email 重複時回傳 Conflict
	Create(ctx context.Context, user *User) error
}

// MemoryUserRepository 行程內使用者資料表（開發用）
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

// NewMemoryUserRepository 創建行程內使用者資料表
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byEmail: make(map[string]User),
	}
}

// FindByEmail 以 email 查詢
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// Create 建立使用者
func (r *MemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return common.NewConflictError("email already registered")
	}
	r.byEmail[user.Email] = *user
	return nil
}
