package dataset

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

// Loader 從物件儲存讀取清理後的資料集
type Loader struct {
	blobs     blob.Store
	cleanName string
}

// NewLoader 創建資料集讀取器
func NewLoader(blobs blob.Store, cleanName string) *Loader {
	return &Loader{
		blobs:     blobs,
		cleanName: cleanName,
	}
}

// Name 清理後資料集的物件名稱
func (l *Loader) Name() string {
	return l.cleanName
}

// Load 下載並正規化清理後的資料集
func (l *Loader) Load(ctx context.Context) ([]Record, error) {
	data, err := l.blobs.Download(ctx, l.cleanName)
	if err != nil {
		return nil, common.NewDependencyError(fmt.Sprintf("failed to download dataset %q", l.cleanName), err)
	}

	table, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	records, err := Normalize(table)
	if err != nil {
		return nil, err
	}

	common.LogDebug("Dataset loaded",
		zap.String("blob", l.cleanName),
		zap.Int("raw_rows", len(table.Rows)),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// Save 將正規化資料寫回物件儲存
func (l *Loader) Save(ctx context.Context, records []Record) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return err
	}
	if err := l.blobs.Upload(ctx, l.cleanName, buf.Bytes(), "text/csv"); err != nil {
		return common.NewDependencyError(fmt.Sprintf("failed to upload dataset %q", l.cleanName), err)
	}
	return nil
}

// FilterDiet 依飲食類型篩選；空值、"all"、"all diet types" 不篩選
func FilterDiet(records []Record, diet string) []Record {
	key, ok := DietFilterKey(diet)
	if !ok {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.DietType == key {
			out = append(out, rec)
		}
	}
	return out
}

// DietFilterKey 正規化飲食類型篩選值，第二個回傳值表示是否需要篩選
func DietFilterKey(diet string) (string, bool) {
	key := NormalizeDiet(diet)
	if key == "" || key == "all" || key == "all diet types" {
		return "", false
	}
	return key, true
}

// NormalizeDiet 去空白並轉小寫
func NormalizeDiet(diet string) string {
	return strings.ToLower(strings.TrimSpace(diet))
}
