package dataset

import (
	"context"
	"errors"
	"testing"

	"nutrition-insights/internal/core/blob"
	"nutrition-insights/internal/pkg/common"
)

func TestLoaderSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	loader := NewLoader(blobs, "clean.csv")
	kcal := 500.0
	want := []Record{{DietType: "keto", Recipe: "keto recipe", Protein: 30, Carbs: 5, Fat: 40, Calories: &kcal}}
	if err := loader.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := loader.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].DietType != "keto" || *got[0].Calories != 500 {
		t.Fatalf("Load = %+v", got)
	}
}

func TestLoaderMissingBlob(t *testing.T) {
	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	_, err = NewLoader(blobs, "missing.csv").Load(context.Background())
	if !common.IsKind(err, common.KindDependencyUnavailable) {
		t.Fatalf("err = %v, want DependencyUnavailable", err)
	}
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("err = %v, want to wrap blob.ErrNotFound", err)
	}
}

func TestFilterDiet(t *testing.T) {
	records := []Record{{DietType: "keto"}, {DietType: "vegan"}, {DietType: "keto"}}

	tests := []struct {
		diet string
		want int
	}{
		{"", 3},
		{"all", 3},
		{"All Diet Types", 3},
		{" KETO ", 2},
		{"paleo", 0},
	}
	for _, tt := range tests {
		if got := FilterDiet(records, tt.diet); len(got) != tt.want {
			t.Fatalf("FilterDiet(%q) = %d rows, want %d", tt.diet, len(got), tt.want)
		}
	}
}
