package engine

import "github.com/admitstack/admit-engine/internal/models"

// Margins of error by confidence level, applied to the point probability.
const (
	marginHigh   = 0.05
	marginMedium = 0.10
	marginLow    = 0.15
)

// ConfidenceEstimator derives a categorical reliability label and an
// interval width from the volume and variability of the history behind an
// estimate. Stateless.
type ConfidenceEstimator struct{}

// NewConfidenceEstimator creates a confidence estimator.
func NewConfidenceEstimator() *ConfidenceEstimator {
	return &ConfidenceEstimator{}
}

// Estimate returns the confidence level and margin of error for a history
// with the given aggregates. High needs at least two years of data and a
// coefficient of variation below 0.2; Medium at least one year and CV below
// 0.4; everything else is Low.
func (e *ConfidenceEstimator) Estimate(stats models.RankStats) (models.ConfidenceLevel, float64) {
	cv := stats.CoefficientOfVariation()
	switch {
	case stats.DistinctYears >= 2 && cv < 0.2:
		return models.ConfidenceHigh, marginHigh
	case stats.DistinctYears >= 1 && cv < 0.4:
		return models.ConfidenceMedium, marginMedium
	default:
		return models.ConfidenceLow, marginLow
	}
}

// Interval applies a margin around a point probability, clamped to [0, 1].
func (e *ConfidenceEstimator) Interval(p float64, stats models.RankStats) models.ConfidenceInterval {
	level, margin := e.Estimate(stats)
	lower := p - margin
	if lower < 0 {
		lower = 0
	}
	upper := p + margin
	if upper > 1 {
		upper = 1
	}
	return models.ConfidenceInterval{Lower: lower, Upper: upper, Margin: margin, Level: level}
}
