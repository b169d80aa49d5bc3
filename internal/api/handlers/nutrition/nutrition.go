package nutrition

import (
	"context"
	"net/http"
	"time"

	"nutrition-insights/internal/api/handlers"
	"nutrition-insights/internal/core/cluster"
	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/core/insights"
	recipeService "nutrition-insights/internal/core/recipe"
	"nutrition-insights/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordLoader 讀取清理後的資料集
type RecordLoader interface {
	Load(ctx context.Context) ([]dataset.Record, error)
}

// Handler 營養分析相關端點
type Handler struct {
	insights        *insights.Service
	records         RecordLoader
	clusters        *cluster.Engine
	defaultK        int
	defaultPageSize int
	now             func() time.Time
}

// NewHandler 創建營養分析處理器
func NewHandler(insightsSvc *insights.Service, records RecordLoader, clusters *cluster.Engine, defaultK, defaultPageSize int) *Handler {
	return &Handler{
		insights:        insightsSvc,
		records:         records,
		clusters:        clusters,
		defaultK:        defaultK,
		defaultPageSize: defaultPageSize,
		now:             time.Now,
	}
}

// GetNutritionalInsights GET /api/getNutritionalInsights?dietType=
func (h *Handler) GetNutritionalInsights(c *gin.Context) {
	diet := c.Query("dietType")

	doc, err := h.insights.Get(c.Request.Context(), diet)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogDebug("Insights served",
		zap.String("diet_type", doc.Meta.DietType),
		zap.String("source", doc.Meta.Source),
		zap.Int("rows", doc.Meta.Rows),
	)
	c.JSON(http.StatusOK, doc)
}

// GetClusters GET /api/getClusters?k=&dietType=
func (h *Handler) GetClusters(c *gin.Context) {
	k, err := handlers.QueryInt(c, "k", h.defaultK)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	records, err := h.records.Load(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	records = dataset.FilterDiet(records, c.Query("dietType"))

	result, err := h.clusters.Cluster(records, k)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecipes GET /api/getRecipes?dietType=&q=&page=&pageSize=
func (h *Handler) GetRecipes(c *gin.Context) {
	page, err := handlers.QueryInt(c, "page", 1)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	pageSize, err := handlers.QueryInt(c, "pageSize", h.defaultPageSize)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = h.defaultPageSize
	}

	records, err := h.records.Load(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	result := recipeService.Query(records, recipeService.QueryParams{
		DietType: c.Query("dietType"),
		Keyword:  c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	}, h.now())

	c.JSON(http.StatusOK, result)
}
