package stock

import (
	"math"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const (
	minVisiblePercentage = 5
	maxPercentage        = 100
	// fallbackMaximum replaces a zero maximum so the percentage stays defined.
	fallbackMaximum = 100
)

// Classify maps a stock level onto its status. Order matters: excess wins over
// critical, and critical wins when min == max.
func Classify(current, minimum, maximum float64) models.StockStatus {
	switch {
	case current > maximum:
		return models.StockExcess
	case current <= minimum:
		return models.StockCritical
	case current < maximum:
		return models.StockWarning
	default:
		return models.StockGood
	}
}

// ProgressPercentage is the fill ratio used for progress bars, clamped to
// [5, 100] so an empty stock is still visible.
func ProgressPercentage(current, maximum float64) float64 {
	if maximum == 0 {
		maximum = fallbackMaximum
	}
	pct := current / maximum * 100
	return math.Min(maxPercentage, math.Max(minVisiblePercentage, pct))
}

// Severity ranks statuses from most to least urgent.
func Severity(status models.StockStatus) int {
	switch status {
	case models.StockCritical:
		return 0
	case models.StockWarning:
		return 1
	case models.StockGood:
		return 2
	case models.StockExcess:
		return 3
	default:
		return 4
	}
}

// Level is a material together with its locally computed classification.
type Level struct {
	models.Material
	Computed   models.StockStatus `json:"computed_status"`
	Percentage float64            `json:"percentage"`
}

// Evaluate classifies a material against its critical floor and optimal ceiling.
func Evaluate(m models.Material) Level {
	return Level{
		Material:   m,
		Computed:   Classify(m.QuantityTotal, m.LowestQuantityNeeded, m.GoodQuantityNeeded),
		Percentage: ProgressPercentage(m.QuantityTotal, m.GoodQuantityNeeded),
	}
}

// EvaluateAll classifies every material.
func EvaluateAll(materials []models.Material) []Level {
	out := make([]Level, 0, len(materials))
	for _, m := range materials {
		out = append(out, Evaluate(m))
	}
	return out
}
