package insights

// 資料來源標記
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Meta 洞察結果的中繼資料
type Meta struct {
	GeneratedAt string `json:"generatedAt"`
	Rows        int    `json:"rows"`
	DietType    string `json:"dietType"`
	Source      string `json:"source,omitempty"`
}

// BarRow 每個飲食類型的平均營養素（長條圖）
type BarRow struct {
	DietType string   `json:"diet_type"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Calories *float64 `json:"calories"`
}

// PieRow 每個飲食類型的食譜數（圓餅圖）
type PieRow struct {
	DietType string `json:"diet_type"`
	Count    int    `json:"count"`
}

// Point 散佈圖樣本點
type Point struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Document 洞察文件；快取中只保存一份未篩選的完整結果
type Document struct {
	ID          string   `json:"id,omitempty"`
	Meta        Meta     `json:"meta"`
	BarChart    []BarRow `json:"barChart"`
	PieChart    []PieRow `json:"pieChart"`
	Correlation []Point  `json:"correlation"`
}
