package engine

import (
	"math"

	"github.com/admitstack/admit-engine/internal/models"
)

// Probability bounds. The engine never asserts certainty: historical cutoffs
// are noisy and finite, so every estimate is clamped into this band.
const (
	MinProbability = 0.01
	MaxProbability = 0.95
)

// Piecewise decay segment boundaries over |candidate - closing|.
const (
	nearBand = 10000
	midBand  = 20000
	farBand  = 40000
)

// ProbabilityModel converts a candidate rank and historical closing ranks
// into admission probabilities. It holds no state; every method is a pure
// function of its inputs.
type ProbabilityModel struct{}

// NewProbabilityModel creates a probability model.
func NewProbabilityModel() *ProbabilityModel {
	return &ProbabilityModel{}
}

// Estimate maps the distance between candidate rank and one historical
// closing rank onto a probability via a three-segment linear decay:
// 0.95 -> 0.50 over the first 10k ranks of distance, 0.50 -> 0.10 over the
// next 10k, 0.10 -> 0.01 over the next 20k, flat 0.01 beyond. Deterministic
// and cheap; a stand-in for a long-tailed probability curve.
func (m *ProbabilityModel) Estimate(candidateRank, closingRank int) float64 {
	if closingRank <= 0 {
		return MinProbability
	}

	diff := float64(candidateRank - closingRank)
	if diff < 0 {
		diff = -diff
	}

	var p float64
	switch {
	case diff <= nearBand:
		p = 0.95 - 0.000045*diff
	case diff <= midBand:
		p = 0.50 - 0.00004*(diff-nearBand)
	case diff <= farBand:
		p = 0.10 - 0.0000045*(diff-midBand)
	default:
		p = MinProbability
	}

	return ClampProbability(p)
}

// EstimateFromDistribution fits a normal approximation over the aggregate
// history and applies a logistic transform of the z-score. std == 0 yields a
// binary outcome (callers clamp when they need the engine-wide band).
// Callers with a single observation pass std = 0.1 * mean.
func (m *ProbabilityModel) EstimateFromDistribution(candidateRank int, mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	if std == 0 {
		if float64(candidateRank) <= mean {
			return 1
		}
		return 0
	}
	z := (float64(candidateRank) - mean) / std
	return 1 / (1 + math.Exp(z))
}

// DistributionStd returns the standard deviation to use for the normal
// approximation: the measured one when multiple observations exist, else 10%
// of the mean.
func DistributionStd(stats models.RankStats) float64 {
	if stats.Count <= 1 {
		return 0.1 * stats.Mean
	}
	return stats.StdDev
}

// Overall returns the admission probability across an offer's whole history:
// the maximum over all (year, round) observations, assuming the candidate
// applies to the historically most favorable round rather than every round.
func (m *ProbabilityModel) Overall(candidateRank int, observations []models.ClosingRankObservation) float64 {
	if len(observations) == 0 {
		return MinProbability
	}
	best := 0.0
	for _, obs := range observations {
		if p := m.Estimate(candidateRank, obs.ClosingRank); p > best {
			best = p
		}
	}
	return best
}

// ClampProbability bounds a probability into [MinProbability, MaxProbability].
func ClampProbability(p float64) float64 {
	if p < MinProbability {
		return MinProbability
	}
	if p > MaxProbability {
		return MaxProbability
	}
	return p
}
