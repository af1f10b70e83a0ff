package factors

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ecoverse/backend/internal/types"
)

// Factor converts an activity amount into kg CO2e. Negative factors are
// avoided-emissions credits (recycling, composting).
type Factor struct {
	Category types.ActivityCategory `yaml:"-" json:"category"`
	Type     string                 `yaml:"-" json:"type"`
	Factor   float64                `yaml:"factor" json:"factor"`
	Unit     string                 `yaml:"unit" json:"unit"`
}

type key struct {
	category types.ActivityCategory
	typ      string
}

// Table is the static emission factor table. Built once at startup,
// read-only afterwards.
type Table struct {
	factors map[key]Factor
}

// US-average factors, kg CO2e per canonical unit.
var defaults = map[types.ActivityCategory]map[string]Factor{
	types.CategoryTransportation: {
		"car_gasoline":         {Factor: 0.404, Unit: "miles"},
		"car_electric":         {Factor: 0.127, Unit: "miles"},
		"bus":                  {Factor: 0.089, Unit: "miles"},
		"train":                {Factor: 0.048, Unit: "miles"},
		"flight_domestic":      {Factor: 0.385, Unit: "miles"},
		"flight_international": {Factor: 0.582, Unit: "miles"},
		"bicycle":              {Factor: 0, Unit: "miles"},
		"walking":              {Factor: 0, Unit: "miles"},
	},
	types.CategoryEnergy: {
		"electricity": {Factor: 0.92, Unit: "kwh"},
		"natural_gas": {Factor: 5.3, Unit: "therms"},
		"heating_oil": {Factor: 10.15, Unit: "gallons"},
		"propane":     {Factor: 5.75, Unit: "gallons"},
	},
	types.CategoryFood: {
		"beef":       {Factor: 26.61, Unit: "lbs"},
		"pork":       {Factor: 5.77, Unit: "lbs"},
		"chicken":    {Factor: 4.57, Unit: "lbs"},
		"fish":       {Factor: 5.4, Unit: "lbs"},
		"dairy":      {Factor: 9.9, Unit: "lbs"},
		"vegetables": {Factor: 0.88, Unit: "lbs"},
		"fruits":     {Factor: 1.1, Unit: "lbs"},
		"grains":     {Factor: 1.4, Unit: "lbs"},
	},
	types.CategoryWaste: {
		"landfill":   {Factor: 0.57, Unit: "lbs"},
		"recycling":  {Factor: -1.1, Unit: "lbs"},
		"composting": {Factor: -0.34, Unit: "lbs"},
	},
}

// Conversions into each canonical unit. Unknown submitted units pass
// through unconverted.
var toCanonical = map[string]map[string]float64{
	"miles": {
		"miles":  1.0,
		"km":     0.621371,
		"meters": 0.000621371,
	},
	"lbs": {
		"lbs":    1.0,
		"pounds": 1.0,
		"kg":     2.20462,
		"grams":  0.00220462,
	},
	"kwh": {
		"kwh": 1.0,
		"wh":  0.001,
		"mwh": 1000.0,
	},
	"gallons": {
		"gallons": 1.0,
		"liters":  0.264172,
	},
	"therms": {
		"therms": 1.0,
	},
}

func Default() *Table {
	t := &Table{factors: make(map[key]Factor)}
	for category, byType := range defaults {
		for typ, f := range byType {
			f.Category = category
			f.Type = typ
			t.factors[key{category, typ}] = f
		}
	}
	return t
}

// Load returns the default table with entries from the YAML file at path
// merged over it. The file maps category -> type -> {factor, unit}.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factors file: %w", err)
	}
	var overrides map[string]map[string]Factor
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse factors file: %w", err)
	}
	for category, byType := range overrides {
		cat := types.ActivityCategory(strings.ToLower(category))
		if !cat.Valid() {
			return nil, fmt.Errorf("factors file: unknown category %q", category)
		}
		for typ, f := range byType {
			f.Category = cat
			f.Type = typ
			if f.Unit == "" {
				if existing, ok := t.factors[key{cat, typ}]; ok {
					f.Unit = existing.Unit
				}
			}
			t.factors[key{cat, typ}] = f
		}
	}
	return t, nil
}

func (t *Table) Lookup(category types.ActivityCategory, typ string) (Factor, bool) {
	f, ok := t.factors[key{category, typ}]
	return f, ok
}

// ConvertAmount normalizes a submitted amount into the canonical unit.
func ConvertAmount(amount float64, fromUnit, canonicalUnit string) float64 {
	conv, ok := toCanonical[strings.ToLower(canonicalUnit)]
	if !ok {
		return amount
	}
	mult, ok := conv[strings.ToLower(strings.TrimSpace(fromUnit))]
	if !ok {
		return amount
	}
	return amount * mult
}

type TypeInfo struct {
	Type   string  `json:"type"`
	Factor float64 `json:"factor"`
	Unit   string  `json:"unit"`
}

type CategoryInfo struct {
	Name  string     `json:"name"`
	Value string     `json:"value"`
	Types []TypeInfo `json:"types"`
}

// Categories returns the catalog for the UI, deterministically ordered.
func (t *Table) Categories() []CategoryInfo {
	byCategory := make(map[types.ActivityCategory][]TypeInfo)
	for _, f := range t.factors {
		byCategory[f.Category] = append(byCategory[f.Category], TypeInfo{
			Type:   f.Type,
			Factor: f.Factor,
			Unit:   f.Unit,
		})
	}
	out := make([]CategoryInfo, 0, len(byCategory))
	for category, infos := range byCategory {
		sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
		name := strings.ToUpper(string(category)[:1]) + string(category)[1:]
		out = append(out, CategoryInfo{Name: name, Value: string(category), Types: infos})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
