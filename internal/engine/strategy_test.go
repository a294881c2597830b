package engine

import (
	"reflect"
	"testing"

	"github.com/admitstack/admit-engine/internal/models"
)

func predictionWith(institute string, p float64, optimalRound int) models.OfferPrediction {
	return models.OfferPrediction{
		Key:         models.OfferKey{Institute: institute, Course: "MBBS", Category: "GENERAL", Quota: "ALL INDIA"},
		Probability: p,
		Interval:    models.ConfidenceInterval{Level: models.ConfidenceMedium},
		Rounds:      models.RoundBreakdown{OptimalRound: optimalRound},
	}
}

func TestPlanPartitionsByThreshold(t *testing.T) {
	p := NewStrategyPlanner()
	predictions := []models.OfferPrediction{
		predictionWith("A", 0.90, 1),
		predictionWith("B", 0.60, 2),
		predictionWith("C", 0.50, 1),
		predictionWith("D", 0.30, 2),
		predictionWith("E", 0.12, 3),
	}

	strategy := p.Plan(predictions, 25000)

	// Best p = 0.90 raises the priority threshold to 0.45.
	if len(strategy.Priority) != 3 {
		t.Fatalf("expected 3 priority entries, got %d", len(strategy.Priority))
	}
	for _, entry := range strategy.Priority {
		if entry.Probability < 0.45 {
			t.Fatalf("priority entry %s below threshold: %v", entry.Key.Institute, entry.Probability)
		}
	}
	if len(strategy.Backup) != 2 {
		t.Fatalf("expected 2 backup entries, got %d", len(strategy.Backup))
	}
	for _, entry := range strategy.Backup {
		if entry.Probability < 0.1 || entry.Probability >= 0.45 {
			t.Fatalf("backup entry %s outside band: %v", entry.Key.Institute, entry.Probability)
		}
	}
}

func TestPlanOrdersGroupsByProbability(t *testing.T) {
	p := NewStrategyPlanner()
	// Input arrives ranked by composite score, which need not follow
	// probability: a cheap offer can outrank a likelier one.
	predictions := []models.OfferPrediction{
		predictionWith("A", 0.50, 1),
		predictionWith("B", 0.52, 2),
		predictionWith("C", 0.55, 1),
		predictionWith("D", 0.90, 1),
	}

	strategy := p.Plan(predictions, 25000)

	var got []float64
	for _, entry := range strategy.Priority {
		got = append(got, entry.Probability)
	}
	// Threshold is 0.90*0.5 = 0.45; all four clear it, the cap keeps the
	// three likeliest in descending order.
	if want := []float64{0.90, 0.55, 0.52}; !reflect.DeepEqual(got, want) {
		t.Fatalf("priority probabilities = %v, want %v", got, want)
	}
	// The 0.50 option cleared the threshold, so it must not be demoted
	// into the backup band.
	if len(strategy.Backup) != 0 {
		t.Fatalf("expected empty backup, got %+v", strategy.Backup)
	}
}

func TestPlanPriorityCap(t *testing.T) {
	p := NewStrategyPlanner()
	var predictions []models.OfferPrediction
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		predictions = append(predictions, predictionWith(name, 0.8, 1))
	}

	strategy := p.Plan(predictions, 25000)
	if len(strategy.Priority) != 3 {
		t.Fatalf("priority list should cap at 3, got %d", len(strategy.Priority))
	}
}

func TestPlanThresholdFloor(t *testing.T) {
	p := NewStrategyPlanner()
	// Best p = 0.35: adaptive threshold 0.175 is below the 0.3 floor.
	predictions := []models.OfferPrediction{
		predictionWith("A", 0.35, 1),
		predictionWith("B", 0.25, 1),
	}

	strategy := p.Plan(predictions, 80000)
	if len(strategy.Priority) != 1 || strategy.Priority[0].Key.Institute != "A" {
		t.Fatalf("only the 0.35 option should clear the 0.3 floor, got %+v", strategy.Priority)
	}
	if len(strategy.Backup) != 1 || strategy.Backup[0].Key.Institute != "B" {
		t.Fatalf("0.25 option should land in backup, got %+v", strategy.Backup)
	}
}

func TestPlanApproachBoundaries(t *testing.T) {
	p := NewStrategyPlanner()
	cases := []struct {
		best float64
		want models.Approach
	}{
		{0.70, models.ApproachAggressive},
		{0.69, models.ApproachBalanced},
		{0.40, models.ApproachBalanced},
		{0.39, models.ApproachConservative},
	}
	for _, tc := range cases {
		strategy := p.Plan([]models.OfferPrediction{predictionWith("A", tc.best, 1)}, 25000)
		if strategy.Approach != tc.want {
			t.Fatalf("best %v: approach = %s, want %s", tc.best, strategy.Approach, tc.want)
		}
	}
}

func TestPlanEmptyPredictions(t *testing.T) {
	p := NewStrategyPlanner()
	strategy := p.Plan(nil, 25000)
	if strategy.Approach != models.ApproachConservative {
		t.Fatalf("empty plan should be Conservative, got %s", strategy.Approach)
	}
	if strategy.RiskNote == "" {
		t.Fatal("empty plan should explain itself")
	}
	if len(strategy.Priority) != 0 || len(strategy.Backup) != 0 {
		t.Fatal("empty plan should have no entries")
	}
}

func TestPlanIdempotent(t *testing.T) {
	p := NewStrategyPlanner()
	predictions := []models.OfferPrediction{
		predictionWith("A", 0.72, 1),
		predictionWith("B", 0.41, 2),
		predictionWith("C", 0.15, 3),
	}
	a := p.Plan(predictions, 42000)
	b := p.Plan(predictions, 42000)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different strategies")
	}
}
