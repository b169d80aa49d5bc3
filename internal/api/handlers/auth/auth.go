package auth

import (
	"net/http"

	"nutrition-insights/internal/api/handlers"
	"nutrition-insights/internal/api/middleware"
	authService "nutrition-insights/internal/core/auth"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 註冊請求
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest 登入請求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeResponse /me 回應
type MeResponse struct {
	User *authService.Claims `json:"user"`
}

// Handler 認證端點
type Handler struct {
	auth *authService.Service
}

// NewHandler 創建認證處理器
func NewHandler(auth *authService.Service) *Handler {
	return &Handler{auth: auth}
}

// Register POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		handlers.RespondError(c, common.NewError(common.KindValidation, "invalid request body", err))
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Login POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		handlers.RespondError(c, common.NewError(common.KindValidation, "invalid request body", err))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Me GET /api/me，需經過 RequireAuth
func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		handlers.RespondError(c, common.NewUnauthorizedError("unauthorized"))
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: claims})
}
