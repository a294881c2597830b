package engine

import (
	"fmt"
	"sort"

	"github.com/admitstack/admit-engine/internal/models"
)

// Strategy thresholds and group caps.
const (
	priorityFloor  = 0.3
	backupFloor    = 0.1
	maxPriority    = 3
	maxBackup      = 2
	viabilityFloor = 0.05
)

// StrategyPlanner partitions a candidate's predictions into priority and
// backup groups and derives the overall counseling approach. Pure
// threshold classification over the overall probabilities.
type StrategyPlanner struct{}

// NewStrategyPlanner creates a strategy planner.
func NewStrategyPlanner() *StrategyPlanner {
	return &StrategyPlanner{}
}

// Plan builds the counseling strategy for a prediction set already sorted by
// recommendation score. The priority threshold adapts to the candidate's best
// option: max(0.3, bestProbability * 0.5), so a weak field still yields a
// usable priority list.
func (p *StrategyPlanner) Plan(predictions []models.OfferPrediction, candidateRank int) models.CounselingStrategy {
	strategy := models.CounselingStrategy{
		Approach: models.ApproachConservative,
	}
	if len(predictions) == 0 {
		strategy.RiskNote = "No viable options found for this rank; consider widening filters or alternative courses."
		return strategy
	}

	// Groups are selected and ordered by admission probability, not by the
	// composite score the caller ranked with.
	byProbability := append([]models.OfferPrediction(nil), predictions...)
	sort.SliceStable(byProbability, func(i, j int) bool {
		if byProbability[i].Probability != byProbability[j].Probability {
			return byProbability[i].Probability > byProbability[j].Probability
		}
		return keyLess(byProbability[i].Key, byProbability[j].Key)
	})

	best := byProbability[0].Probability

	threshold := priorityFloor
	if adaptive := best * 0.5; adaptive > threshold {
		threshold = adaptive
	}

	for _, pred := range byProbability {
		entry := models.StrategyEntry{
			Key:          pred.Key,
			Probability:  pred.Probability,
			Confidence:   pred.Interval.Level,
			OptimalRound: pred.Rounds.OptimalRound,
		}
		switch {
		case pred.Probability >= threshold && len(strategy.Priority) < maxPriority:
			strategy.Priority = append(strategy.Priority, entry)
		case pred.Probability >= backupFloor && pred.Probability < threshold && len(strategy.Backup) < maxBackup:
			strategy.Backup = append(strategy.Backup, entry)
		}
	}

	switch {
	case best >= 0.7:
		strategy.Approach = models.ApproachAggressive
		strategy.RiskNote = "Strong options available; target preferred institutes early."
	case best >= 0.4:
		strategy.Approach = models.ApproachBalanced
		strategy.RiskNote = "Reasonable options available; balance preference against certainty."
	default:
		strategy.Approach = models.ApproachConservative
		strategy.RiskNote = "Options are uncertain; lock in any acceptable seat and upgrade in later rounds."
	}

	strategy.Notes = advisoryNotes(strategy, candidateRank)
	return strategy
}

func advisoryNotes(strategy models.CounselingStrategy, candidateRank int) []string {
	var notes []string

	switch {
	case candidateRank <= 10000:
		notes = append(notes, "Your rank is highly competitive; most options should remain open through early rounds.")
	case candidateRank <= 50000:
		notes = append(notes, "Your rank is competitive for a broad set of institutes; ordering choices carefully matters more than volume.")
	default:
		notes = append(notes, "At this rank, include every acceptable option; seat availability varies sharply between rounds.")
	}

	earlyPriority := 0
	for _, entry := range strategy.Priority {
		if entry.OptimalRound == 1 {
			earlyPriority++
		}
	}
	if earlyPriority > 0 {
		notes = append(notes, fmt.Sprintf("%d of your priority options historically close in round 1; do not wait for later rounds on those.", earlyPriority))
	}
	if len(strategy.Backup) > 0 {
		notes = append(notes, "Keep backup options listed even if a priority option looks safe; withdrawals reopen seats unpredictably.")
	}
	return notes
}
