package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構（僅用於 4xx）
type ErrorResponse struct {
	Error string `json:"error"` // 錯誤信息
	Code  string `json:"code"`  // 錯誤代碼
}

// Kind 錯誤分類
type Kind int

const (
	KindInternal Kind = iota
	KindSchema
	KindValidation
	KindUnauthorized
	KindConflict
	KindDependencyUnavailable
)

// String 實現 fmt.Stringer
func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "SchemaError"
	case KindValidation:
		return "ValidationError"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindDependencyUnavailable:
		return "DependencyUnavailable"
	default:
		return "InternalError"
	}
}

// 預定義錯誤代碼
const (
	ErrCodeSchema             = "SCHEMA_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"
)

// kindTable 錯誤分類 → HTTP 狀態碼與錯誤代碼
// Conflict 沿用目前對外的 400
var kindTable = map[Kind]struct {
	status int
	code   string
}{
	KindInternal:              {http.StatusInternalServerError, ErrCodeInternalError},
	KindSchema:                {http.StatusInternalServerError, ErrCodeSchema},
	KindValidation:            {http.StatusBadRequest, ErrCodeInvalidRequest},
	KindUnauthorized:          {http.StatusUnauthorized, ErrCodeUnauthorized},
	KindConflict:              {http.StatusBadRequest, ErrCodeConflict},
	KindDependencyUnavailable: {http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Kind    Kind   // 錯誤分類
	Message string // 錯誤信息
	Err     error  // 原始錯誤
}

func (e *CustomError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Code 錯誤代碼
func (e *CustomError) Code() string {
	return kindTable[e.Kind].code
}

// NewError 創建新的自定義錯誤
func NewError(kind Kind, message string, err error) *CustomError {
	return &CustomError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewSchemaError 必要欄位缺失
func NewSchemaError(message string) error {
	return NewError(KindSchema, message, nil)
}

// NewValidationError 請求參數或內容無效
func NewValidationError(message string) error {
	return NewError(KindValidation, message, nil)
}

// NewUnauthorizedError 憑證錯誤或 token 無效
func NewUnauthorizedError(message string) error {
	return NewError(KindUnauthorized, message, nil)
}

// NewConflictError 資源衝突（例如重複註冊）
func NewConflictError(message string) error {
	return NewError(KindConflict, message, nil)
}

// NewDependencyError 外部依賴不可用
func NewDependencyError(message string, err error) error {
	return NewError(KindDependencyUnavailable, message, err)
}

// KindOf 取得錯誤分類，非 CustomError 一律視為 InternalError
func KindOf(err error) Kind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsKind 檢查錯誤是否屬於指定分類
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	return IsKind(err, KindValidation)
}

// StatusFor 取得錯誤分類對應的 HTTP 狀態碼
func StatusFor(kind Kind) int {
	if entry, ok := kindTable[kind]; ok {
		return entry.status
	}
	return http.StatusInternalServerError
}

// CodeFor 取得錯誤分類對應的錯誤代碼
func CodeFor(kind Kind) string {
	if entry, ok := kindTable[kind]; ok {
		return entry.code
	}
	return ErrCodeInternalError
}
