package trends

import (
	"testing"

	"github.com/admitstack/admit-engine/internal/models"
)

func historyOf(observations []models.ClosingRankObservation, stats models.RankStats) *models.OfferHistory {
	return &models.OfferHistory{Observations: observations, Stats: stats}
}

func TestSummarizeEasing(t *testing.T) {
	a := NewAnalyzer(nil)
	hist := historyOf([]models.ClosingRankObservation{
		{Year: 2022, Round: 1, ClosingRank: 20000},
		{Year: 2023, Round: 1, ClosingRank: 24000},
		{Year: 2024, Round: 1, ClosingRank: 28000},
	}, models.RankStats{Mean: 24000, StdDev: 3266, DistinctYears: 3})

	summary := a.Summarize(hist)
	if summary.Direction != "Easing" {
		t.Fatalf("rising cutoffs should read Easing, got %s", summary.Direction)
	}
	if summary.DataYears != 3 {
		t.Fatalf("data years = %d, want 3", summary.DataYears)
	}
	if summary.AvgYearChangePct <= 0 {
		t.Fatalf("year change should be positive, got %v", summary.AvgYearChangePct)
	}
}

func TestSummarizeTightening(t *testing.T) {
	a := NewAnalyzer(nil)
	hist := historyOf([]models.ClosingRankObservation{
		{Year: 2023, Round: 1, ClosingRank: 30000},
		{Year: 2024, Round: 1, ClosingRank: 24000},
	}, models.RankStats{Mean: 27000, StdDev: 3000, DistinctYears: 2})

	summary := a.Summarize(hist)
	if summary.Direction != "Tightening" {
		t.Fatalf("falling cutoffs should read Tightening, got %s", summary.Direction)
	}
}

func TestSummarizeStable(t *testing.T) {
	a := NewAnalyzer(nil)
	hist := historyOf([]models.ClosingRankObservation{
		{Year: 2023, Round: 1, ClosingRank: 25000},
		{Year: 2024, Round: 1, ClosingRank: 25200},
	}, models.RankStats{Mean: 25100, StdDev: 100, DistinctYears: 2})

	summary := a.Summarize(hist)
	if summary.Direction != "Stable" {
		t.Fatalf("flat cutoffs should read Stable, got %s", summary.Direction)
	}
	if summary.Volatility != "Stable" {
		t.Fatalf("low CV should read Stable, got %s", summary.Volatility)
	}
}

func TestSummarizeVolatilityBands(t *testing.T) {
	a := NewAnalyzer(nil)
	cases := []struct {
		std  float64
		want string
	}{
		{1000, "Stable"},
		{5000, "Moderate"},
		{9000, "Volatile"},
	}
	for _, tc := range cases {
		hist := historyOf([]models.ClosingRankObservation{{Year: 2024, Round: 1, ClosingRank: 20000}},
			models.RankStats{Mean: 20000, StdDev: tc.std, DistinctYears: 1})
		if got := a.Summarize(hist).Volatility; got != tc.want {
			t.Fatalf("std %v: volatility = %s, want %s", tc.std, got, tc.want)
		}
	}
}

func TestSummarizeSingleYear(t *testing.T) {
	a := NewAnalyzer(nil)
	hist := historyOf([]models.ClosingRankObservation{{Year: 2024, Round: 1, ClosingRank: 20000}},
		models.RankStats{Mean: 20000, DistinctYears: 1})
	if got := a.Summarize(hist).Direction; got != "Insufficient data" {
		t.Fatalf("one year cannot give a direction, got %s", got)
	}
}

func TestSummarizeRoundMovement(t *testing.T) {
	a := NewAnalyzer(nil)
	hist := historyOf([]models.ClosingRankObservation{
		{Year: 2024, Round: 1, ClosingRank: 20000},
		{Year: 2024, Round: 2, ClosingRank: 22000},
		{Year: 2024, Round: 3, ClosingRank: 24200},
	}, models.RankStats{Mean: 22066, StdDev: 1700, DistinctYears: 1})

	summary := a.Summarize(hist)
	if summary.AvgRoundChangePct <= 9 || summary.AvgRoundChangePct >= 11 {
		t.Fatalf("round-over-round change should be about 10%%, got %v", summary.AvgRoundChangePct)
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	a := NewAnalyzer(nil)
	summary := a.Summarize(&models.OfferHistory{})
	if summary.Direction != "Unknown" || summary.Volatility != "Unknown" {
		t.Fatalf("empty history should be Unknown, got %+v", summary)
	}
}
