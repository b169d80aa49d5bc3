package auth

import (
	"context"
	"errors"
	"fmt"

	"nutrition-insights/internal/pkg/common"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormUserRepository 以關聯式資料庫存放使用者
type GormUserRepository struct {
	db *gorm.DB
}

// OpenPostgres 連線 Postgres
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewGormUserRepository 創建使用者資料表並自動遷移
func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &GormUserRepository{db: db}, nil
}

// FindByEmail 以 email 查詢
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, common.NewDependencyError("failed to query user", err)
	}
	return &u, nil
}

// Create 建立使用者，依唯一索引判斷重複
func (r *GormUserRepository) Create(ctx context.Context, user *User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return common.NewConflictError("email already registered")
	}
	if err != nil {
		return common.NewDependencyError("failed to create user", err)
	}
	return nil
}
