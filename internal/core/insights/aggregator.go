package insights

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"nutrition-insights/internal/core/dataset"
	"nutrition-insights/internal/pkg/common"

	"gonum.org/v1/gonum/stat"
)

// AllDiets 未篩選時回傳的飲食類型標記
const AllDiets = "all"

// Options 彙總參數
type Options struct {
	SampleSize int
	Seed       uint64
	Now        time.Time
}

// EchoDiet 回傳要寫入 meta 的飲食類型，未指定時為 "all"
func EchoDiet(diet string) string {
	if d := strings.TrimSpace(diet); d != "" {
		return d
	}
	return AllDiets
}

// Aggregate 計算長條圖、圓餅圖與散佈圖樣本
func Aggregate(records []dataset.Record, diet string, opts Options) *Document {
	rows := dataset.FilterDiet(records, diet)

	doc := &Document{
		Meta: Meta{
			GeneratedAt: common.FormatTimestamp(opts.Now),
			Rows:        len(rows),
			DietType:    EchoDiet(diet),
		},
		BarChart:    []BarRow{},
		PieChart:    []PieRow{},
		Correlation: []Point{},
	}
	if len(rows) == 0 {
		return doc
	}

	groups, order := groupByDiet(rows)
	for _, name := range order {
		group := groups[name]
		doc.BarChart = append(doc.BarChart, barRow(name, group))
		doc.PieChart = append(doc.PieChart, PieRow{DietType: name, Count: len(group)})
	}

	doc.Correlation = Sample(rows, opts.SampleSize, opts.Seed)
	return doc
}

// groupByDiet 依飲食類型分組，組別依名稱排序
func groupByDiet(rows []dataset.Record) (map[string][]dataset.Record, []string) {
	groups := make(map[string][]dataset.Record)
	for _, rec := range rows {
		groups[rec.DietType] = append(groups[rec.DietType], rec)
	}
	order := make([]string, 0, len(groups))
	for name := range groups {
		order = append(order, name)
	}
	sort.Strings(order)
	return groups, order
}

func barRow(name string, group []dataset.Record) BarRow {
	protein := make([]float64, len(group))
	carbs := make([]float64, len(group))
	fat := make([]float64, len(group))
	calories := make([]float64, 0, len(group))
	for i, rec := range group {
		protein[i] = rec.Protein
		carbs[i] = rec.Carbs
		fat[i] = rec.Fat
		if rec.Calories != nil {
			calories = append(calories, *rec.Calories)
		}
	}

	row := BarRow{
		DietType: name,
		Protein:  common.Round2(stat.Mean(protein, nil)),
		Carbs:    common.Round2(stat.Mean(carbs, nil)),
		Fat:      common.Round2(stat.Mean(fat, nil)),
	}
	// 缺值的熱量不列入平均，全缺時為 null
	if len(calories) > 0 {
		kcal := common.Round2(stat.Mean(calories, nil))
		row.Calories = &kcal
	}
	return row
}

// Sample 以固定種子不放回抽樣 min(size, len(rows)) 筆
func Sample(rows []dataset.Record, size int, seed uint64) []Point {
	n := size
	if n > len(rows) {
		n = len(rows)
	}
	if n <= 0 {
		return []Point{}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(len(rows))

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		rec := rows[perm[i]]
		points[i] = Point{Protein: rec.Protein, Carbs: rec.Carbs, Fat: rec.Fat}
	}
	return points
}

// FilterCached 從快取的完整文件中挑出指定飲食類型
// 長條圖與圓餅圖只做列選取，不重新計算；散佈圖樣本維持未篩選
func FilterCached(doc *Document, diet string) *Document {
	out := &Document{
		Meta:        doc.Meta,
		BarChart:    doc.BarChart,
		PieChart:    doc.PieChart,
		Correlation: doc.Correlation,
	}
	out.Meta.DietType = EchoDiet(diet)
	if out.BarChart == nil {
		out.BarChart = []BarRow{}
	}
	if out.PieChart == nil {
		out.PieChart = []PieRow{}
	}
	if out.Correlation == nil {
		out.Correlation = []Point{}
	}

	key, ok := dataset.DietFilterKey(diet)
	if !ok {
		return out
	}

	out.BarChart = []BarRow{}
	for _, row := range doc.BarChart {
		if row.DietType == key {
			out.BarChart = append(out.BarChart, row)
		}
	}

	out.PieChart = []PieRow{}
	total := 0
	for _, row := range doc.PieChart {
		if row.DietType == key {
			out.PieChart = append(out.PieChart, row)
			total += row.Count
		}
	}
	out.Meta.Rows = total
	return out
}
