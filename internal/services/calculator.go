package services

import (
	"fmt"
	"math"

	"github.com/ecoverse/backend/internal/apierr"
	"github.com/ecoverse/backend/internal/factors"
	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
)

// Confidence is a fixed heuristic, not a statistical estimate: a documented
// default, slightly higher when the entry carries a location.
const (
	baseConfidence     = 0.85
	locationConfidence = 0.05
	maxConfidence      = 0.95
)

type CalculationResult struct {
	EmissionKg      float64 `json:"emission_kg"`
	Confidence      float64 `json:"confidence"`
	Factor          float64 `json:"factor"`
	Unit            string  `json:"unit"`
	ConvertedAmount float64 `json:"converted_amount"`
}

// CalculatorService is the single authoritative emission calculation path.
// Clients only ever display what it returns.
type CalculatorService interface {
	Compute(category types.ActivityCategory, activityType string, amount float64, unit string, location string) (CalculationResult, error)
	Factors() *factors.Table
}

type calculatorService struct {
	log   *logger.Logger
	table *factors.Table
}

func NewCalculatorService(baseLog *logger.Logger, table *factors.Table) CalculatorService {
	serviceLog := baseLog.With("service", "CalculatorService")
	return &calculatorService{log: serviceLog, table: table}
}

// Compute is pure over its inputs and the static factor table.
// emission = factor * amount (after unit conversion), rounded to 2 decimals.
// Negative factors (recycling, composting) pass through as avoided-emissions
// credits and are never clamped.
func (cs *calculatorService) Compute(category types.ActivityCategory, activityType string, amount float64, unit string, location string) (CalculationResult, error) {
	if !category.Valid() {
		return CalculationResult{}, apierr.Validation(fmt.Errorf("invalid category %q", category))
	}
	if activityType == "" {
		return CalculationResult{}, apierr.Validation(fmt.Errorf("type is required"))
	}
	if amount <= 0 {
		return CalculationResult{}, apierr.Validation(fmt.Errorf("amount must be positive, got %v", amount))
	}

	factor, ok := cs.table.Lookup(category, activityType)
	if !ok {
		return CalculationResult{}, apierr.UnknownActivityType(string(category), activityType)
	}

	converted := factors.ConvertAmount(amount, unit, factor.Unit)
	emission := round2(factor.Factor * converted)

	confidence := baseConfidence
	if location != "" {
		confidence += locationConfidence
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return CalculationResult{
		EmissionKg:      emission,
		Confidence:      confidence,
		Factor:          factor.Factor,
		Unit:            factor.Unit,
		ConvertedAmount: converted,
	}, nil
}

func (cs *calculatorService) Factors() *factors.Table {
	return cs.table
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
