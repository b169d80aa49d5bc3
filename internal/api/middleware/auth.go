package middleware

import (
	"net/http"

	"nutrition-insights/internal/core/auth"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "auth_claims"

// TokenVerifier 驗證 Authorization 標頭
type TokenVerifier interface {
	Verify(header string) (*auth.Claims, error)
}

// RequireAuth 要求有效的 bearer token，並將 claims 存入上下文
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			common.LogDebug("Authorization rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
				Error: "unauthorized",
				Code:  common.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom 取得 RequireAuth 存入的 claims
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}
