package dataset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nutrition-insights/internal/api/handlers"
	"nutrition-insights/internal/api/middleware"
	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/core/ingest"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadResponse 上傳後的回應
type UploadResponse struct {
	JobID   string `json:"jobId"`
	RawName string `json:"rawName"`
	Bytes   int    `json:"bytes"`
}

// Enqueuer 匯入任務隊列
type Enqueuer interface {
	Enqueue(rawName string) (string, error)
}

// Handler 原始資料集上傳端點
type Handler struct {
	blobs   blob.Store
	queue   Enqueuer
	rawName string
}

// NewHandler 創建上傳處理器
func NewHandler(blobs blob.Store, queue Enqueuer, rawName string) *Handler {
	return &Handler{
		blobs:   blobs,
		queue:   queue,
		rawName: rawName,
	}
}

// Upload POST /api/uploadDataset
// 請求體為 CSV 原文或 multipart 的 file 欄位；寫入原始檔後排入匯入任務
func (h *Handler) Upload(c *gin.Context) {
	data, err := readUpload(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.blobs.Upload(ctx, h.rawName, data, "text/csv"); err != nil {
		handlers.RespondError(c, common.NewDependencyError(fmt.Sprintf("failed to upload raw dataset %q", h.rawName), err))
		return
	}

	jobID, err := h.queue.Enqueue(h.rawName)
	if err != nil {
		if errors.Is(err, ingest.ErrQueueFull) || errors.Is(err, ingest.ErrQueueClosed) {
			err = common.NewDependencyError("ingest queue unavailable", err)
		}
		handlers.RespondError(c, err)
		return
	}

	fields := []zap.Field{
		zap.String("job_id", jobID),
		zap.String("raw_name", h.rawName),
		zap.Int("bytes", len(data)),
	}
	if claims, ok := middleware.ClaimsFrom(c); ok {
		fields = append(fields, zap.String("user_id", claims.Subject))
	}
	common.LogInfo("原始資料集已上傳", fields...)

	c.JSON(http.StatusAccepted, UploadResponse{
		JobID:   jobID,
		RawName: h.rawName,
		Bytes:   len(data),
	})
}

func readUpload(c *gin.Context) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, ferr := c.FormFile("file")
		if ferr != nil {
			return nil, common.NewError(common.KindValidation, "multipart field \"file\" is required", ferr)
		}
		f, ferr := file.Open()
		if ferr != nil {
			return nil, common.NewError(common.KindValidation, "failed to open uploaded file", ferr)
		}
		defer f.Close()
		data, err = io.ReadAll(f)
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}

	if err != nil {
		return nil, common.NewError(common.KindValidation, "failed to read upload", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, common.NewValidationError("uploaded dataset is empty")
	}
	return data, nil
}
