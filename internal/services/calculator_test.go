package services

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/factors"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testCalculator(t *testing.T) CalculatorService {
	t.Helper()
	return NewCalculatorService(testLogger(t), factors.Default())
}

func TestComputeRoundsToTwoDecimals(t *testing.T) {
	// 25 miles at an override factor of 0.411 lands exactly on the
	// half-cent boundary: 10.275 rounds to 10.28.
	path := filepath.Join(t.TempDir(), "factors.yaml")
	if err := os.WriteFile(path, []byte("transportation:\n  car_gasoline:\n    factor: 0.411\n"), 0o644); err != nil {
		t.Fatalf("write factors file: %v", err)
	}
	table, err := factors.Load(path)
	if err != nil {
		t.Fatalf("load factors: %v", err)
	}
	calc := NewCalculatorService(testLogger(t), table)

	result, err := calc.Compute(types.CategoryTransportation, "car_gasoline", 25, "miles", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if result.EmissionKg != 10.28 {
		t.Fatalf("emission = %v, want 10.28", result.EmissionKg)
	}
}

func TestComputeDeterministic(t *testing.T) {
	calc := testCalculator(t)
	first, err := calc.Compute(types.CategoryEnergy, "electricity", 13.7, "kwh", "Portland")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := calc.Compute(types.CategoryEnergy, "electricity", 13.7, "kwh", "Portland")
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if again != first {
			t.Fatalf("result differs between identical calls: %+v vs %+v", again, first)
		}
	}
}

func TestComputeLinearInAmount(t *testing.T) {
	calc := testCalculator(t)
	one, err := calc.Compute(types.CategoryFood, "chicken", 1, "lbs", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	ten, err := calc.Compute(types.CategoryFood, "chicken", 10, "lbs", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if math.Abs(ten.EmissionKg-10*one.EmissionKg) > 0.01 {
		t.Fatalf("10x amount = %v, want ~%v", ten.EmissionKg, 10*one.EmissionKg)
	}
}

func TestComputeNegativeFactorUnclamped(t *testing.T) {
	calc := testCalculator(t)
	result, err := calc.Compute(types.CategoryWaste, "recycling", 10, "lbs", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if result.EmissionKg != -11.0 {
		t.Fatalf("recycling emission = %v, want -11.0", result.EmissionKg)
	}
}

func TestComputeUnitConversion(t *testing.T) {
	calc := testCalculator(t)
	result, err := calc.Compute(types.CategoryTransportation, "car_gasoline", 10, "km", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := round2(0.404 * 10 * 0.621371)
	if result.EmissionKg != want {
		t.Fatalf("km emission = %v, want %v", result.EmissionKg, want)
	}
	if math.Abs(result.ConvertedAmount-6.21371) > 1e-9 {
		t.Fatalf("converted amount = %v, want 6.21371", result.ConvertedAmount)
	}
}

func TestComputeConfidence(t *testing.T) {
	calc := testCalculator(t)

	noLocation, err := calc.Compute(types.CategoryEnergy, "electricity", 5, "kwh", "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if noLocation.Confidence != 0.85 {
		t.Fatalf("confidence = %v, want 0.85", noLocation.Confidence)
	}

	withLocation, err := calc.Compute(types.CategoryEnergy, "electricity", 5, "kwh", "Seattle")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if withLocation.Confidence != 0.9 {
		t.Fatalf("confidence with location = %v, want 0.9", withLocation.Confidence)
	}
}

func TestComputeValidation(t *testing.T) {
	calc := testCalculator(t)
	cases := []struct {
		name     string
		category types.ActivityCategory
		typ      string
		amount   float64
		wantCode string
	}{
		{name: "invalid_category", category: "aviation", typ: "jet", amount: 1, wantCode: "validation_failed"},
		{name: "missing_type", category: types.CategoryFood, typ: "", amount: 1, wantCode: "validation_failed"},
		{name: "zero_amount", category: types.CategoryFood, typ: "beef", amount: 0, wantCode: "validation_failed"},
		{name: "negative_amount", category: types.CategoryFood, typ: "beef", amount: -3, wantCode: "validation_failed"},
		{name: "unknown_type", category: types.CategoryFood, typ: "unobtainium", amount: 1, wantCode: "unknown_activity_type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Compute(tc.category, tc.typ, tc.amount, "", "")
			if err == nil {
				t.Fatalf("expected error")
			}
			var ae *apierr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("error %v is not an *apierr.Error", err)
			}
			if ae.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", ae.Code, tc.wantCode)
			}
			if ae.Status != 400 {
				t.Fatalf("status = %d, want 400", ae.Status)
			}
		})
	}
}
