package cluster

import (
	"time"

	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/pkg/common"
)

// Meta 分群結果的中繼資料
type Meta struct {
	GeneratedAt string      `json:"generatedAt"`
	K           int         `json:"k"`
	Rows        int         `json:"rows"`
	Centers     [][]float64 `json:"centers"`
}

// Assignment 單一食譜的分群結果
type Assignment struct {
	Recipe   string  `json:"recipe"`
	DietType string  `json:"diet_type"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Cluster  int     `json:"cluster"`
}

// Result 分群結果，每次請求重新計算，不保存
type Result struct {
	Meta     Meta         `json:"meta"`
	Clusters []Assignment `json:"clusters"`
}

// Engine 以蛋白質、碳水、脂肪三維特徵分群
type Engine struct {
	seed    uint64
	maxIter int
	now     func() time.Time
}

// NewEngine 創建分群引擎
func NewEngine(seed uint64, maxIter int) *Engine {
	return &Engine{
		seed:    seed,
		maxIter: maxIter,
		now:     time.Now,
	}
}

// Cluster 對資料列分群；k 不合法時回傳 ValidationError
func (e *Engine) Cluster(records []dataset.Record, k int) (*Result, error) {
	points := make([][]float64, len(records))
	for i, rec := range records {
		points[i] = []float64{rec.Protein, rec.Carbs, rec.Fat}
	}

	labels, centers, err := KMeans(points, k, e.seed, e.maxIter)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, len(records))
	for i, rec := range records {
		assignments[i] = Assignment{
			Recipe:   rec.Recipe,
			DietType: rec.DietType,
			Protein:  rec.Protein,
			Carbs:    rec.Carbs,
			Fat:      rec.Fat,
			Cluster:  labels[i],
		}
	}

	return &Result{
		Meta: Meta{
			GeneratedAt: common.FormatTimestamp(e.now()),
			K:           k,
			Rows:        len(records),
			Centers:     centers,
		},
		Clusters: assignments,
	}, nil
}
