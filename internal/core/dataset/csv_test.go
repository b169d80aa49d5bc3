package dataset

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSVStripsBOMAndPadsRows(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufeffDiet_type,Protein,Carbs,Fat\nketo,1\nvegan,1,2,3,4\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if table.Header[0] != "Diet_type" {
		t.Fatalf("header[0] = %q, want Diet_type", table.Header[0])
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Header) {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), len(table.Header))
		}
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty csv")
	}
}

func TestClean(t *testing.T) {
	table := &RawTable{
		Header: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"", " "},
			{"1", "2"},
			{"3", "4"},
		},
	}

	got := Clean(table)
	want := [][]string{{"1", "2"}, {"3", "4"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("Clean rows = %v, want %v", got.Rows, want)
	}
}

func TestDedup(t *testing.T) {
	kcal := 10.0
	records := []Record{
		{DietType: "keto", Recipe: "a", Protein: 1, Carbs: 1, Fat: 1, Calories: &kcal},
		{DietType: "keto", Recipe: "a", Protein: 1, Carbs: 1, Fat: 1, Calories: &kcal},
		{DietType: "keto", Recipe: "a", Protein: 1, Carbs: 1, Fat: 1},
	}
	if got := Dedup(records); len(got) != 2 {
		t.Fatalf("Dedup kept %d records, want 2", len(got))
	}
}

func TestWriteCSVRenormalizesIdentically(t *testing.T) {
	table := mustParse(t, "Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g)\n"+
		"Keto,\"Eggs, scrambled\",french,12.5,1,10\n"+
		"Vegan,Salad,,3,20.25,0.5\n")
	first, err := Normalize(table)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, first); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	second, err := Normalize(mustParse(t, buf.String()))
	if err != nil {
		t.Fatalf("Normalize(clean): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-normalized records differ:\n first=%+v\nsecond=%+v", first, second)
	}
}

func TestWriteCSVOmitsEmptyCuisine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Record{{DietType: "keto", Recipe: "x", Protein: 1, Carbs: 2, Fat: 3}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if header != "diet_type,recipe,protein,carbs,fat,calories" {
		t.Fatalf("header = %q", header)
	}
}
