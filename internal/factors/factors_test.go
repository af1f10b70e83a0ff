package factors

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecoverse/backend/internal/types"
)

func TestDefaultLookup(t *testing.T) {
	table := Default()

	f, ok := table.Lookup(types.CategoryTransportation, "car_gasoline")
	if !ok {
		t.Fatalf("expected car_gasoline factor")
	}
	if f.Factor != 0.404 || f.Unit != "miles" {
		t.Fatalf("car_gasoline = %+v, want factor 0.404 unit miles", f)
	}

	if _, ok := table.Lookup(types.CategoryFood, "unobtainium"); ok {
		t.Fatalf("unexpected factor for unknown type")
	}
}

func TestNegativeFactorsPreserved(t *testing.T) {
	table := Default()
	f, ok := table.Lookup(types.CategoryWaste, "recycling")
	if !ok {
		t.Fatalf("expected recycling factor")
	}
	if f.Factor >= 0 {
		t.Fatalf("recycling factor = %v, want negative", f.Factor)
	}
}

func TestConvertAmount(t *testing.T) {
	cases := []struct {
		name      string
		amount    float64
		from      string
		canonical string
		want      float64
	}{
		{name: "km_to_miles", amount: 10, from: "km", canonical: "miles", want: 6.21371},
		{name: "kg_to_lbs", amount: 2, from: "kg", canonical: "lbs", want: 4.40924},
		{name: "liters_to_gallons", amount: 10, from: "liters", canonical: "gallons", want: 2.64172},
		{name: "same_unit", amount: 5, from: "miles", canonical: "miles", want: 5},
		{name: "unknown_unit_passthrough", amount: 7, from: "furlongs", canonical: "miles", want: 7},
		{name: "case_insensitive", amount: 1, from: "KM", canonical: "miles", want: 0.621371},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ConvertAmount(tc.amount, tc.from, tc.canonical)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("ConvertAmount(%v, %q, %q)=%v, want %v", tc.amount, tc.from, tc.canonical, got, tc.want)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	contents := []byte("transportation:\n  car_gasoline:\n    factor: 0.411\nfood:\n  insects:\n    factor: 0.5\n    unit: lbs\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write factors file: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f, ok := table.Lookup(types.CategoryTransportation, "car_gasoline")
	if !ok || f.Factor != 0.411 {
		t.Fatalf("override not applied: %+v ok=%v", f, ok)
	}
	// Unit omitted in the override inherits the default.
	if f.Unit != "miles" {
		t.Fatalf("override unit = %q, want miles", f.Unit)
	}

	ins, ok := table.Lookup(types.CategoryFood, "insects")
	if !ok || ins.Factor != 0.5 || ins.Unit != "lbs" {
		t.Fatalf("new entry not applied: %+v ok=%v", ins, ok)
	}

	// Untouched defaults survive the merge.
	if _, ok := table.Lookup(types.CategoryEnergy, "electricity"); !ok {
		t.Fatalf("default electricity factor lost after merge")
	}
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	if err := os.WriteFile(path, []byte("shipping:\n  freight:\n    factor: 1\n"), 0o644); err != nil {
		t.Fatalf("write factors file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestCategoriesDeterministic(t *testing.T) {
	table := Default()
	first := table.Categories()
	second := table.Categories()

	if len(first) != 4 {
		t.Fatalf("categories = %d, want 4", len(first))
	}
	for i := range first {
		if first[i].Value != second[i].Value {
			t.Fatalf("category order differs between calls: %q vs %q", first[i].Value, second[i].Value)
		}
		if len(first[i].Types) != len(second[i].Types) {
			t.Fatalf("type count differs for %q", first[i].Value)
		}
		for j := range first[i].Types {
			if first[i].Types[j] != second[i].Types[j] {
				t.Fatalf("type order differs for %q", first[i].Value)
			}
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].Value >= first[i].Value {
			t.Fatalf("categories not sorted: %q before %q", first[i-1].Value, first[i].Value)
		}
	}
}
