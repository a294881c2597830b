package repo

import (
	"math"
	"testing"

	"github.com/admitstack/admit-engine/internal/models"
)

func indexRows() []DatasetRow {
	fee := 1628.0
	key := models.OfferKey{Institute: "AIIMS DELHI", Course: "MBBS", Category: "GENERAL", Quota: "ALL INDIA"}
	return []DatasetRow{
		{Key: key, Details: models.OfferDetails{State: "DELHI", AnnualFee: &fee}, Year: 2024, Round: 2, ClosingRank: 22000},
		{Key: key, Details: models.OfferDetails{State: "DELHI"}, Year: 2023, Round: 1, ClosingRank: 20000},
		{
			Key:         models.OfferKey{Institute: "GRANT MEDICAL COLLEGE", Course: "MBBS", Category: "OBC", Quota: "STATE"},
			Details:     models.OfferDetails{State: "MAHARASHTRA"},
			Year:        2024,
			Round:       1,
			ClosingRank: 5000,
		},
	}
}

func TestIndexAggregates(t *testing.T) {
	idx := NewHistoricalRankIndex(indexRows())

	if idx.Offers() != 2 {
		t.Fatalf("expected 2 offers, got %d", idx.Offers())
	}
	if idx.Observations() != 3 {
		t.Fatalf("expected 3 observations, got %d", idx.Observations())
	}

	hist, ok := idx.Lookup(models.OfferKey{Institute: "AIIMS DELHI", Course: "MBBS", Category: "GENERAL", Quota: "ALL INDIA"})
	if !ok {
		t.Fatal("lookup failed")
	}
	if hist.Stats.Mean != 21000 {
		t.Fatalf("mean = %v, want 21000", hist.Stats.Mean)
	}
	if math.Abs(hist.Stats.StdDev-1000) > 1e-9 {
		t.Fatalf("std = %v, want 1000", hist.Stats.StdDev)
	}
	if hist.Stats.DistinctYears != 2 || hist.Stats.YearMin != 2023 || hist.Stats.YearMax != 2024 {
		t.Fatalf("year coverage wrong: %+v", hist.Stats)
	}
	// Observations ordered by (year, round).
	if hist.Observations[0].Year != 2023 || hist.Observations[1].Round != 2 {
		t.Fatalf("observations not ordered: %+v", hist.Observations)
	}
	// First non-nil detail wins during merge.
	if hist.Details.AnnualFee == nil || *hist.Details.AnnualFee != 1628 {
		t.Fatalf("details not merged: %+v", hist.Details)
	}
}

func TestIndexLookupCaseInsensitive(t *testing.T) {
	idx := NewHistoricalRankIndex(indexRows())
	if _, ok := idx.Lookup(models.OfferKey{Institute: "aiims delhi", Course: "mbbs", Category: "general", Quota: "all india"}); !ok {
		t.Fatal("lookup should be case-insensitive")
	}
}

func TestIndexFilter(t *testing.T) {
	idx := NewHistoricalRankIndex(indexRows())

	keys := idx.Filter(models.OfferFilter{State: "maha"})
	if len(keys) != 1 || keys[0].Institute != "GRANT MEDICAL COLLEGE" {
		t.Fatalf("state filter wrong: %+v", keys)
	}

	keys = idx.Filter(models.OfferFilter{Category: "GENERAL"})
	if len(keys) != 1 || keys[0].Institute != "AIIMS DELHI" {
		t.Fatalf("category filter wrong: %+v", keys)
	}

	keys = idx.Filter(models.OfferFilter{})
	if len(keys) != 2 {
		t.Fatalf("empty filter should match everything, got %d", len(keys))
	}
	// Deterministic order.
	if keys[0].Institute != "AIIMS DELHI" {
		t.Fatalf("filter order not deterministic: %+v", keys)
	}
}

func TestIndexFacets(t *testing.T) {
	idx := NewHistoricalRankIndex(indexRows())
	facets := idx.Facets()
	if len(facets.States) != 2 || len(facets.Categories) != 2 || len(facets.Quotas) != 2 {
		t.Fatalf("unexpected facets: %+v", facets)
	}
	if len(facets.Courses) != 1 || facets.Courses[0] != "MBBS" {
		t.Fatalf("unexpected courses: %+v", facets.Courses)
	}
}

func TestMedianOf(t *testing.T) {
	if got := medianOf([]int{30, 10, 20}); got != 20 {
		t.Fatalf("odd median = %v, want 20", got)
	}
	if got := medianOf([]int{10, 20, 30, 40}); got != 25 {
		t.Fatalf("even median = %v, want 25", got)
	}
}
