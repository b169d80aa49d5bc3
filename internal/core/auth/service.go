package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Session 註冊或登入成功後的回應
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// Service 認證服務
type Service struct {
	users      UserRepository
	tokens     *TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewService 創建認證服務
func NewService(users UserRepository, tokens *TokenIssuer, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// NormalizeEmail 去空白並轉小寫
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 註冊新使用者並簽發 token
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("email and password are required")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, common.NewConflictError("email already registered")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           common.GenerateUUID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Provider:     ProviderPassword,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	common.LogInfo("使用者已註冊", zap.String("user_id", user.ID))
	return s.session(user)
}

// Login 驗證帳密並簽發新 token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewUnauthorizedError("invalid email or password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, common.NewUnauthorizedError("invalid email or password")
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.NewUnauthorizedError("invalid email or password")
	}
	return s.session(user)
}

// Verify 解析 Authorization 標頭中的 bearer token
func (s *Service) Verify(header string) (*Claims, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, common.NewUnauthorizedError("missing or malformed authorization header")
	}

	claims, err := s.tokens.Parse(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return nil, common.NewError(common.KindUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token: token,
		User:  user.Public(),
	}, nil
}
