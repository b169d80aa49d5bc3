package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// ReadCSV 讀取 CSV，第一列為欄位名稱；欄位數不一致的列會補齊或截斷
func ReadCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := &RawTable{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, fitRow(row, len(header)))
	}
	return table, nil
}

// ParseCSV 從位元組解析 CSV
func ParseCSV(data []byte) (*RawTable, error) {
	return ReadCSV(bytes.NewReader(data))
}

func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Clean 移除完全空白的列與完全重複的列（保留第一次出現）
func Clean(table *RawTable) *RawTable {
	out := &RawTable{Header: table.Header}
	seen := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		if isEmptyRow(row) {
			continue
		}
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Dedup 移除完全相同的正規化資料列，保持原順序
func Dedup(records []Record) []Record {
	out := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func recordKey(rec Record) string {
	return strings.Join(recordRow(rec, true), "\x1f")
}

// WriteCSV 將正規化資料寫成標準欄位的 CSV
func WriteCSV(w io.Writer, records []Record) error {
	withCuisine := false
	for _, rec := range records {
		if rec.Cuisine != "" {
			withCuisine = true
			break
		}
	}

	header := []string{FieldDietType, FieldRecipe}
	if withCuisine {
		header = append(header, FieldCuisine)
	}
	header = append(header, FieldProtein, FieldCarbs, FieldFat, FieldCalories)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(recordRow(rec, withCuisine)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordRow(rec Record, withCuisine bool) []string {
	row := []string{rec.DietType, rec.Recipe}
	if withCuisine {
		row = append(row, rec.Cuisine)
	}
	calories := ""
	if rec.Calories != nil {
		calories = formatFloat(*rec.Calories)
	}
	return append(row, formatFloat(rec.Protein), formatFloat(rec.Carbs), formatFloat(rec.Fat), calories)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
