package dataset

// 正規化後的欄位名稱
const (
	FieldDietType = "diet_type"
	FieldRecipe   = "recipe"
	FieldCuisine  = "cuisine"
	FieldProtein  = "protein"
	FieldCarbs    = "carbs"
	FieldFat      = "fat"
	FieldCalories = "calories"
)

// RawTable 未經處理的表格資料，欄位名稱不可預期
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Record 正規化後的食譜資料列
// Protein / Carbs / Fat 一定有值；Calories 在來源欄位無法轉換時為 nil
type Record struct {
	DietType string   `json:"diet_type"`
	Recipe   string   `json:"recipe"`
	Cuisine  string   `json:"cuisine,omitempty"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Calories *float64 `json:"calories"`
}

// AtwaterCalories 以 Atwater 係數估算熱量
func AtwaterCalories(protein, carbs, fat float64) float64 {
	return protein*4 + carbs*4 + fat*9
}
