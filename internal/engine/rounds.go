package engine

import (
	"math"
	"sort"

	"github.com/admitstack/admit-engine/internal/models"
)

// Synthetic round parameters. When the source table never attributed cutoffs
// to counseling rounds, we derive per-round medians from the aggregate mean
// with a 5% tightening per successive round.
const (
	syntheticRounds    = 5
	roundTighteningPct = 0.05
)

// RoundAnalyzer produces the per-round breakdown for one offer: round-level
// probabilities, the cumulative curve across rounds, and the optimal round to
// target. Stateless apart from its collaborators.
type RoundAnalyzer struct {
	prob *ProbabilityModel
	conf *ConfidenceEstimator
}

// NewRoundAnalyzer creates a round analyzer.
func NewRoundAnalyzer(prob *ProbabilityModel, conf *ConfidenceEstimator) *RoundAnalyzer {
	return &RoundAnalyzer{prob: prob, conf: conf}
}

// Analyze builds the round breakdown for an offer. Measured round data is
// used when present; otherwise rounds are synthesized from the aggregate
// history and flagged as such.
func (a *RoundAnalyzer) Analyze(candidateRank int, hist *models.OfferHistory) models.RoundBreakdown {
	var predictions []models.RoundPrediction
	if hist.HasRoundData() {
		predictions = a.measuredRounds(candidateRank, hist)
	} else {
		predictions = a.syntheticRounds(candidateRank, hist.Stats)
	}

	breakdown := models.RoundBreakdown{Predictions: predictions}
	if len(predictions) == 0 {
		return breakdown
	}

	// Cumulative probability under an independence approximation:
	// P(admitted by round r) = 1 - prod(1 - p_i) over rounds i <= r.
	survive := 1.0
	for _, rp := range predictions {
		survive *= 1 - rp.Probability
		breakdown.Cumulative = append(breakdown.Cumulative, models.CumulativeRound{
			Round:       rp.Round,
			Probability: 1 - survive,
		})
	}

	best := predictions[0]
	for _, rp := range predictions[1:] {
		if rp.Probability > best.Probability {
			best = rp
		}
	}
	breakdown.OptimalRound = best.Round
	return breakdown
}

func (a *RoundAnalyzer) measuredRounds(candidateRank int, hist *models.OfferHistory) []models.RoundPrediction {
	byRound := make(map[int][]int)
	for _, obs := range hist.Observations {
		if obs.Round < 1 {
			continue
		}
		byRound[obs.Round] = append(byRound[obs.Round], obs.ClosingRank)
	}

	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	predictions := make([]models.RoundPrediction, 0, len(rounds))
	for _, r := range rounds {
		median := medianInt(byRound[r])
		p := a.prob.Estimate(candidateRank, median)
		level, _ := a.conf.Estimate(roundStats(byRound[r], hist.Stats))
		predictions = append(predictions, models.RoundPrediction{
			Round:             r,
			Probability:       p,
			Confidence:        level,
			MedianClosingRank: median,
			Interpretation:    Interpret(p),
		})
	}
	return predictions
}

func (a *RoundAnalyzer) syntheticRounds(candidateRank int, stats models.RankStats) []models.RoundPrediction {
	if stats.Count == 0 || stats.Mean <= 0 {
		return nil
	}

	predictions := make([]models.RoundPrediction, 0, syntheticRounds)
	for r := 1; r <= syntheticRounds; r++ {
		estimated := stats.Mean * math.Pow(1-roundTighteningPct, float64(r-1))
		p := a.prob.Estimate(candidateRank, int(math.Round(estimated)))
		predictions = append(predictions, models.RoundPrediction{
			Round:             r,
			Probability:       p,
			Confidence:        models.ConfidenceLow,
			MedianClosingRank: int(math.Round(estimated)),
			Interpretation:    Interpret(p),
			Synthetic:         true,
		})
	}
	return predictions
}

// Interpret renders a probability as counseling guidance.
func Interpret(p float64) string {
	switch {
	case p >= 0.8:
		return "Very High - Strong likelihood of admission in this round"
	case p >= 0.6:
		return "High - Good chances, keep this option active"
	case p >= 0.4:
		return "Moderate - Possible, do not rely on this alone"
	case p >= 0.2:
		return "Low - Unlikely, treat strictly as a backup"
	default:
		return "Very Low - Admission here would be exceptional"
	}
}

// roundStats narrows the offer aggregates to one round's samples while
// keeping the year coverage of the full history, which is what the confidence
// bands key on.
func roundStats(ranks []int, full models.RankStats) models.RankStats {
	if len(ranks) == 0 {
		return models.RankStats{}
	}
	sum := 0.0
	for _, r := range ranks {
		sum += float64(r)
	}
	mean := sum / float64(len(ranks))
	variance := 0.0
	for _, r := range ranks {
		variance += (float64(r) - mean) * (float64(r) - mean)
	}
	variance /= float64(len(ranks))
	return models.RankStats{
		Mean:          mean,
		StdDev:        math.Sqrt(variance),
		Count:         len(ranks),
		DistinctYears: full.DistinctYears,
	}
}

func medianInt(ranks []int) int {
	sorted := append([]int(nil), ranks...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
