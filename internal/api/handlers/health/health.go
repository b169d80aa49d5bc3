package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nutrition-insights/internal/core/ingest"
	"nutrition-insights/internal/infrastructure/config"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *ingest.Status         `json:"queue,omitempty"`
	Store     map[string]interface{} `json:"store,omitempty"`
}

// QueueStatusProvider 提供匯入隊列狀態
type QueueStatusProvider interface {
	Status() *ingest.Status
}

// Pinger 可探測的外部依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsProvider 提供存取統計的文件儲存
type StatsProvider interface {
	Stats() map[string]interface{}
}

// Handler 健康檢查處理器
type Handler struct {
	cfg   *config.Config
	queue QueueStatusProvider
	store Pinger
}

// NewHandler 創建健康檢查處理器；queue 與 store 可為 nil
func NewHandler(cfg *config.Config, queue QueueStatusProvider, store Pinger) *Handler {
	return &Handler{
		cfg:   cfg,
		queue: queue,
		store: store,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.Status()
	}
	if stats, ok := h.store.(StatsProvider); ok {
		response.Store = stats.Stats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：有設定文件儲存時須可連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			common.LogWarn("Document store not ready", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"store":  err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  h.store != nil,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
