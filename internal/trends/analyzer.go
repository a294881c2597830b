package trends

import (
	"log/slog"
	"sort"

	"github.com/admitstack/admit-engine/internal/models"
)

// Volatility bands over the coefficient of variation of closing ranks.
const (
	stableCeiling   = 0.15
	moderateCeiling = 0.30
)

// Analyzer derives year-over-year and round-over-round movement summaries
// from an offer's closing-rank history.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Summarize reports how an offer's cutoffs have moved. Direction follows the
// average year-over-year change of the yearly mean closing rank: a rising
// closing rank means the seat got easier to obtain, a falling one means more
// competitive.
func (a *Analyzer) Summarize(hist *models.OfferHistory) models.TrendSummary {
	if hist == nil || len(hist.Observations) == 0 {
		return models.TrendSummary{Direction: "Unknown", Volatility: "Unknown"}
	}

	summary := models.TrendSummary{
		DataYears:  hist.Stats.DistinctYears,
		Volatility: volatilityLabel(hist.Stats.CoefficientOfVariation()),
	}

	yearlyMeans := meansByYear(hist.Observations)
	summary.AvgYearChangePct = avgChangePct(yearlyMeans)
	summary.AvgRoundChangePct = avgRoundChangePct(hist.Observations)

	switch {
	case len(yearlyMeans) < 2:
		summary.Direction = "Insufficient data"
	case summary.AvgYearChangePct > 2:
		summary.Direction = "Easing"
	case summary.AvgYearChangePct < -2:
		summary.Direction = "Tightening"
	default:
		summary.Direction = "Stable"
	}
	return summary
}

func volatilityLabel(cv float64) string {
	switch {
	case cv < stableCeiling:
		return "Stable"
	case cv < moderateCeiling:
		return "Moderate"
	default:
		return "Volatile"
	}
}

// meansByYear returns the mean closing rank per year, ordered by year.
func meansByYear(observations []models.ClosingRankObservation) []float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, obs := range observations {
		sums[obs.Year] += float64(obs.ClosingRank)
		counts[obs.Year]++
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	means := make([]float64, 0, len(years))
	for _, y := range years {
		means = append(means, sums[y]/float64(counts[y]))
	}
	return means
}

func avgChangePct(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	total := 0.0
	steps := 0
	for i := 1; i < len(series); i++ {
		if series[i-1] <= 0 {
			continue
		}
		total += (series[i] - series[i-1]) / series[i-1] * 100
		steps++
	}
	if steps == 0 {
		return 0
	}
	return total / float64(steps)
}

// avgRoundChangePct measures how the cutoff moves between successive rounds
// within each year, averaged across years with round-attributed data.
func avgRoundChangePct(observations []models.ClosingRankObservation) float64 {
	byYear := make(map[int][]models.ClosingRankObservation)
	for _, obs := range observations {
		if obs.Round < 1 {
			continue
		}
		byYear[obs.Year] = append(byYear[obs.Year], obs)
	}

	total := 0.0
	steps := 0
	for _, obs := range byYear {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Round < obs[j].Round })
		for i := 1; i < len(obs); i++ {
			prev := float64(obs[i-1].ClosingRank)
			if prev <= 0 {
				continue
			}
			total += (float64(obs[i].ClosingRank) - prev) / prev * 100
			steps++
		}
	}
	if steps == 0 {
		return 0
	}
	return total / float64(steps)
}
