package dataset

import (
	"math"
	"strconv"
	"strings"

	"nutrition-insights/internal/pkg/common"
)

// ColumnRule 欄位比對規則：正規化後的欄位名稱符合 Match 即對應到 Field
type ColumnRule struct {
	Field string
	Match func(key string) bool
}

// ColumnRules 依序比對，每個欄位取第一條符合的規則
var ColumnRules = []ColumnRule{
	{Field: FieldDietType, Match: func(k string) bool { return strings.Contains(k, "diet_type") }},
	{Field: FieldRecipe, Match: func(k string) bool {
		return strings.Contains(k, "recipename") || strings.Contains(k, "recipe_name") || k == "recipe"
	}},
	{Field: FieldCuisine, Match: func(k string) bool { return strings.Contains(k, "cuisine") }},
	{Field: FieldProtein, Match: func(k string) bool { return strings.HasPrefix(k, "protein") }},
	{Field: FieldCarbs, Match: func(k string) bool {
		return strings.HasPrefix(k, "carbs") || strings.HasPrefix(k, "carbohydrate")
	}},
	{Field: FieldFat, Match: func(k string) bool { return strings.HasPrefix(k, "fat") }},
	{Field: FieldCalories, Match: func(k string) bool { return strings.Contains(k, "calories") || k == "kcal" }},
}

// ColumnKey 欄位名稱正規化：去頭尾空白、轉小寫、移除空白與 "(g)"
func ColumnKey(column string) string {
	key := strings.ToLower(strings.TrimSpace(column))
	key = strings.ReplaceAll(key, " ", "")
	return strings.ReplaceAll(key, "(g)", "")
}

// MatchColumn 回傳欄位對應的標準名稱，無符合規則時回傳空字串
func MatchColumn(column string) string {
	key := ColumnKey(column)
	for _, rule := range ColumnRules {
		if rule.Match(key) {
			return rule.Field
		}
	}
	return ""
}

// MapColumns 建立標準欄位 → 來源欄位索引
// 多個來源欄位對應到同一標準欄位時，以最左邊的欄位為準
func MapColumns(header []string) map[string]int {
	mapping := make(map[string]int)
	for i, column := range header {
		field := MatchColumn(column)
		if field == "" {
			continue
		}
		if _, taken := mapping[field]; taken {
			continue
		}
		mapping[field] = i
	}
	return mapping
}

// Normalize 將原始表格轉為標準資料列
func Normalize(table *RawTable) ([]Record, error) {
	mapping := MapColumns(table.Header)

	dietIdx, ok := mapping[FieldDietType]
	if !ok {
		return nil, common.NewSchemaError("diet_type column not found in CSV")
	}
	recipeIdx, hasRecipe := mapping[FieldRecipe]
	cuisineIdx, hasCuisine := mapping[FieldCuisine]
	caloriesIdx, hasCalories := mapping[FieldCalories]

	records := make([]Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		diet := strings.ToLower(strings.TrimSpace(cell(row, dietIdx)))
		if diet == "" {
			continue
		}

		protein := coerceColumn(row, mapping, FieldProtein)
		carbs := coerceColumn(row, mapping, FieldCarbs)
		fat := coerceColumn(row, mapping, FieldFat)
		if protein == nil || carbs == nil || fat == nil {
			continue
		}

		rec := Record{
			DietType: diet,
			Protein:  *protein,
			Carbs:    *carbs,
			Fat:      *fat,
		}

		if hasRecipe {
			rec.Recipe = strings.TrimSpace(cell(row, recipeIdx))
		} else {
			rec.Recipe = diet + " recipe"
		}
		if hasCuisine {
			rec.Cuisine = strings.TrimSpace(cell(row, cuisineIdx))
		}
		if hasCalories {
			rec.Calories = coerceFloat(cell(row, caloriesIdx))
		} else {
			kcal := AtwaterCalories(rec.Protein, rec.Carbs, rec.Fat)
			rec.Calories = &kcal
		}

		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func coerceColumn(row []string, mapping map[string]int, field string) *float64 {
	idx, ok := mapping[field]
	if !ok {
		return nil
	}
	return coerceFloat(cell(row, idx))
}

// coerceFloat 將字串轉為數字；空字串、非數字、NaN 與無限大皆視為缺值
func coerceFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
