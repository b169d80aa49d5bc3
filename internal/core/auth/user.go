package auth

import (
	"time"
)

// ProviderPassword 以 email/密碼註冊的使用者
const ProviderPassword = "password"

// User 使用者紀錄，建立後不再更新
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:320;not null"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash" gorm:"not null"`
	Provider     string    `json:"provider" gorm:"size:32"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser 對外回傳的使用者欄位（不含密碼雜湊）
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public 轉為對外欄位
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}
