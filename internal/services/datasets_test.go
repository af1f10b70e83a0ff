package services

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ecoverse/backend/internal/types"
)

func writeDataset(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestDatasets(t *testing.T) (DatasetService, string) {
	t.Helper()
	dir := t.TempDir()

	writeDataset(t, dir, lifestyleDatasetFile,
		"Diet,Transport,Heating Energy Source,Monthly Grocery Bill,Vehicle Monthly Distance Km,How Long TV PC Daily Hour,CarbonEmission\n"+
			"omnivore,private,coal,300,800,6,2500\n"+
			"omnivore,private,natural gas,250,600,4,2200\n"+
			"vegetarian,public,electricity,200,100,3,1500\n"+
			"vegan,walk/bicycle,electricity,180,0,2,900\n"+
			"vegan,public,natural gas,190,50,5,1100\n")

	writeDataset(t, dir, iotDatasetFile,
		"Energy_Usage_kWh,Carbon_Emission_kgCO2,Renewable_Energy_Usage_percent,Vehicle_Type,Building_Type\n"+
			"10,8,20,gasoline,residential\n"+
			"12,9,30,gasoline,commercial\n"+
			"8,3,80,electric,residential\n"+
			"6,2,90,electric,residential\n"+
			"14,11,10,diesel,commercial\n")

	writeDataset(t, dir, powerDatasetFile,
		"Date;Time;Global_active_power;Voltage;Sub_metering_1;Sub_metering_2;Sub_metering_3\n"+
			"16/12/2006;19:24:00;4.216;234.84;0.0;1.0;17.0\n"+
			"16/12/2006;20:24:00;3.520;235.02;0.0;1.0;16.0\n"+
			"17/12/2006;03:24:00;0.520;236.10;0.0;0.0;0.0\n"+
			"18/12/2006;19:30:00;?;233.90;?;?;?\n")

	svc := NewDatasetService(dir, testLogger(t))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc, dir
}

func TestDatasetSummary(t *testing.T) {
	svc, _ := newTestDatasets(t)
	summary := svc.Summary()
	if len(summary) != 3 {
		t.Fatalf("datasets = %d, want 3", len(summary))
	}
	byName := map[string]DatasetSummary{}
	for _, s := range summary {
		byName[s.Name] = s
	}
	if byName[lifestyleDatasetFile].Records != 5 {
		t.Fatalf("lifestyle records = %d, want 5", byName[lifestyleDatasetFile].Records)
	}
	if byName[powerDatasetFile].Records != 4 {
		t.Fatalf("power records = %d, want 4", byName[powerDatasetFile].Records)
	}
}

func TestDatasetInsightsDeterministic(t *testing.T) {
	svc, _ := newTestDatasets(t)
	first := svc.Insights()
	if len(first) == 0 {
		t.Fatalf("no insights produced")
	}
	for i := 0; i < 3; i++ {
		again := svc.Insights()
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("insights differ between identical calls")
		}
	}
}

func TestDatasetInsightsContent(t *testing.T) {
	svc, _ := newTestDatasets(t)
	byTitle := map[string]DatasetInsight{}
	for _, in := range svc.Insights() {
		byTitle[in.Title] = in
	}

	diet, ok := byTitle["Diet Impact on Carbon Emissions"]
	if !ok {
		t.Fatalf("missing diet insight")
	}
	if diet.Source != lifestyleDatasetSource {
		t.Fatalf("diet source = %q", diet.Source)
	}
	dietStats, ok := diet.Data["omnivore"].(map[string]any)
	if !ok {
		t.Fatalf("diet data missing omnivore group: %+v", diet.Data)
	}
	if dietStats["mean"] != 2350.0 {
		t.Fatalf("omnivore mean = %v, want 2350", dietStats["mean"])
	}

	renewable, ok := byTitle["Renewable Energy Impact"]
	if !ok {
		t.Fatalf("missing renewable insight")
	}
	// high (>50%): 3, 2 → 2.5; low: 8, 9, 11 → 9.333
	if renewable.Data["high_renewable_avg"] != 2.5 {
		t.Fatalf("high renewable avg = %v, want 2.5", renewable.Data["high_renewable_avg"])
	}

	power, ok := byTitle["Daily Energy Usage Patterns"]
	if !ok {
		t.Fatalf("missing power insight")
	}
	if power.Data["peak_hour"] != 19 {
		t.Fatalf("peak hour = %v, want 19", power.Data["peak_hour"])
	}
}

func TestDatasetMissingFilesDegrade(t *testing.T) {
	svc := NewDatasetService(t.TempDir(), testLogger(t))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load over empty dir: %v", err)
	}
	if got := svc.Insights(); len(got) != 0 {
		t.Fatalf("insights from no datasets = %d, want 0", len(got))
	}
	if got := svc.Summary(); len(got) != 0 {
		t.Fatalf("summaries from no datasets = %d, want 0", len(got))
	}
	if got := svc.Benchmarks(); len(got) != 0 {
		t.Fatalf("benchmarks from no datasets = %d, want 0", len(got))
	}
	if got := svc.ComparativeInsights([]*types.Activity{{Category: types.CategoryFood, EmissionKg: 10, Date: time.Now()}}); len(got) != 1 {
		// Only the user-data insight survives without benchmarks.
		t.Fatalf("comparative insights = %d, want 1", len(got))
	}
}

func TestBenchmarksQuantiles(t *testing.T) {
	svc, _ := newTestDatasets(t)
	benchmarks := svc.Benchmarks()

	overall, ok := benchmarks["overall"]
	if !ok || len(overall) != 1 {
		t.Fatalf("overall benchmarks = %+v", benchmarks["overall"])
	}
	b := overall[0]
	if b.SampleSize != 5 {
		t.Fatalf("sample size = %d, want 5", b.SampleSize)
	}
	// emissions sorted: 900 1100 1500 2200 2500
	if b.LowEmission != 1100 {
		t.Fatalf("p25 = %v, want 1100", b.LowEmission)
	}
	if b.AvgEmission != 1640 {
		t.Fatalf("mean = %v, want 1640", b.AvgEmission)
	}
	if b.HighEmission != 2200 {
		t.Fatalf("p75 = %v, want 2200", b.HighEmission)
	}

	diets, ok := benchmarks["diet"]
	if !ok || len(diets) != 3 {
		t.Fatalf("diet benchmarks = %+v", diets)
	}
	// Deterministic lexical ordering of groups.
	if diets[0].Category != "omnivore" || diets[1].Category != "vegan" || diets[2].Category != "vegetarian" {
		t.Fatalf("diet order = %q, %q, %q", diets[0].Category, diets[1].Category, diets[2].Category)
	}
}

func TestComparativeInsightsBands(t *testing.T) {
	svc, _ := newTestDatasets(t)

	low := svc.ComparativeInsights([]*types.Activity{
		{Category: types.CategoryEnergy, EmissionKg: 100, Date: time.Now()},
	})
	if len(low) == 0 || low[0].Title != "Excellent Carbon Performance" {
		t.Fatalf("low-band insight = %+v", low)
	}

	high := svc.ComparativeInsights([]*types.Activity{
		{Category: types.CategoryEnergy, EmissionKg: 5000, Date: time.Now()},
	})
	if len(high) == 0 || high[0].Title != "High Carbon Emissions Detected" {
		t.Fatalf("high-band insight = %+v", high)
	}

	if got := svc.ComparativeInsights(nil); got != nil {
		t.Fatalf("insights for no activities = %+v, want nil", got)
	}
}

func TestQuantileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	if got := quantile(values, 0.25); math.Abs(got-1.75) > 1e-9 {
		t.Fatalf("p25 = %v, want 1.75", got)
	}
	if got := quantile(values, 0.5); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("p50 = %v, want 2.5", got)
	}
	if got := quantile([]float64{7}, 0.75); got != 7 {
		t.Fatalf("single value p75 = %v, want 7", got)
	}
}

func TestSampleConfidence(t *testing.T) {
	cases := []struct {
		n    int
		want float64
	}{
		{n: 1, want: 0.5},
		{n: 10, want: 0.6},
		{n: 100, want: 0.7},
		{n: 100000, want: 0.95},
	}
	for _, tc := range cases {
		got := sampleConfidence(tc.n)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("sampleConfidence(%d)=%v, want %v", tc.n, got, tc.want)
		}
	}
}
