package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nutrition-insights/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 依錯誤分類回應
// 4xx 回傳 JSON {error, code}；5xx 直接回傳原始錯誤訊息（純文字）
func RespondError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := common.StatusFor(kind)

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}

	_ = c.Error(err)
	if status >= 500 {
		common.LogError("Request failed", fields...)
		c.Abort()
		c.String(status, err.Error())
		return
	}

	common.LogWarn("Request rejected", fields...)
	c.AbortWithStatusJSON(status, common.ErrorResponse{
		Error: publicMessage(err),
		Code:  common.CodeFor(kind),
	})
}

// publicMessage 4xx 只回傳錯誤本身的訊息，不帶底層原因
func publicMessage(err error) string {
	var ce *common.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

// QueryInt 讀取整數查詢參數；未提供時回傳預設值，非整數為 ValidationError
func QueryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewValidationError(fmt.Sprintf("query parameter %q must be an integer", name))
	}
	return v, nil
}
