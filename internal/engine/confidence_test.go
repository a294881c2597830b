package engine

import (
	"testing"

	"github.com/admitstack/admit-engine/internal/models"
)

func TestConfidenceTwoStableYears(t *testing.T) {
	// Years {2023: 20000, 2024: 22000}: mean 21000, population std 1000.
	e := NewConfidenceEstimator()
	stats := models.RankStats{Mean: 21000, StdDev: 1000, Count: 2, DistinctYears: 2}

	level, margin := e.Estimate(stats)
	if level != models.ConfidenceHigh {
		t.Fatalf("expected High confidence, got %s", level)
	}
	if margin != 0.05 {
		t.Fatalf("expected margin 0.05, got %v", margin)
	}
}

func TestConfidenceSingleYear(t *testing.T) {
	e := NewConfidenceEstimator()
	stats := models.RankStats{Mean: 21000, StdDev: 5000, Count: 3, DistinctYears: 1}

	level, margin := e.Estimate(stats)
	if level != models.ConfidenceMedium {
		t.Fatalf("expected Medium confidence, got %s", level)
	}
	if margin != 0.10 {
		t.Fatalf("expected margin 0.10, got %v", margin)
	}
}

func TestConfidenceVolatileHistory(t *testing.T) {
	e := NewConfidenceEstimator()
	stats := models.RankStats{Mean: 20000, StdDev: 9000, Count: 6, DistinctYears: 3}

	level, margin := e.Estimate(stats)
	if level != models.ConfidenceLow {
		t.Fatalf("high variability should be Low confidence, got %s", level)
	}
	if margin != 0.15 {
		t.Fatalf("expected margin 0.15, got %v", margin)
	}
}

func TestConfidenceEmptyHistory(t *testing.T) {
	e := NewConfidenceEstimator()
	level, _ := e.Estimate(models.RankStats{})
	if level != models.ConfidenceLow {
		t.Fatalf("empty history should be Low, got %s", level)
	}
}

func TestConfidenceMonotoneInYears(t *testing.T) {
	// Adding years of data (variance held fixed) never lowers the level.
	e := NewConfidenceEstimator()
	order := map[models.ConfidenceLevel]int{
		models.ConfidenceLow:    0,
		models.ConfidenceMedium: 1,
		models.ConfidenceHigh:   2,
	}
	prev := -1
	for years := 0; years <= 5; years++ {
		stats := models.RankStats{Mean: 20000, StdDev: 2000, Count: years * 2, DistinctYears: years}
		level, _ := e.Estimate(stats)
		if order[level] < prev {
			t.Fatalf("confidence dropped to %s at %d years", level, years)
		}
		prev = order[level]
	}
}

func TestIntervalClampedToUnit(t *testing.T) {
	e := NewConfidenceEstimator()
	stats := models.RankStats{Mean: 20000, StdDev: 9000, Count: 2, DistinctYears: 1}

	iv := e.Interval(0.05, stats)
	if iv.Lower != 0 {
		t.Fatalf("lower bound should clamp at 0, got %v", iv.Lower)
	}
	iv = e.Interval(0.95, stats)
	if iv.Upper > 1 {
		t.Fatalf("upper bound should clamp at 1, got %v", iv.Upper)
	}
	if iv.Level == "" {
		t.Fatal("interval should carry a confidence level")
	}
}
