package recipe

import (
	"strings"
	"time"

	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/pkg/common"
)

// QueryParams 食譜查詢參數
type QueryParams struct {
	DietType string
	Keyword  string
	Page     int
	PageSize int
}

// Item 食譜列表項目
type Item struct {
	Recipe   string   `json:"recipe"`
	DietType string   `json:"diet_type"`
	Calories *float64 `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
}

// PageMeta 分頁中繼資料
type PageMeta struct {
	GeneratedAt string `json:"generatedAt"`
	Total       int    `json:"total"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

// Page 查詢結果
type Page struct {
	Meta    PageMeta `json:"meta"`
	Recipes []Item   `json:"recipes"`
}

// Query 先篩選飲食類型與關鍵字，再分頁；超出範圍的頁數回傳空列表
func Query(records []dataset.Record, params QueryParams, now time.Time) *Page {
	rows := dataset.FilterDiet(records, params.DietType)
	rows = filterKeyword(rows, params.Keyword)

	page := &Page{
		Meta: PageMeta{
			GeneratedAt: common.FormatTimestamp(now),
			Total:       len(rows),
			Page:        params.Page,
			PageSize:    params.PageSize,
		},
		Recipes: []Item{},
	}

	start, end := bounds(params.Page, params.PageSize, len(rows))
	for _, rec := range rows[start:end] {
		page.Recipes = append(page.Recipes, Item{
			Recipe:   rec.Recipe,
			DietType: rec.DietType,
			Calories: rec.Calories,
			Protein:  rec.Protein,
			Carbs:    rec.Carbs,
			Fat:      rec.Fat,
		})
	}
	return page
}

// filterKeyword 不分大小寫比對食譜名稱子字串；關鍵字原樣比對，不去除空白
func filterKeyword(rows []dataset.Record, keyword string) []dataset.Record {
	needle := strings.ToLower(keyword)
	if needle == "" {
		return rows
	}
	out := make([]dataset.Record, 0, len(rows))
	for _, rec := range rows {
		if rec.Recipe != "" && strings.Contains(strings.ToLower(rec.Recipe), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// bounds 計算 [start, end) 並截斷到資料範圍
func bounds(page, pageSize, total int) (int, int) {
	if page < 1 || pageSize < 1 {
		return 0, 0
	}
	if page-1 > total/pageSize {
		return total, total
	}
	start := (page - 1) * pageSize
	if start >= total {
		return total, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
