package repo

import (
	"math"
	"sort"
	"strings"

	"github.com/admitstack/admit-engine/internal/models"
)

// HistoricalRankIndex is the read-only in-memory index of closing-rank
// history keyed by offer. It is built once at startup and never mutated
// afterwards, so concurrent readers need no locking.
type HistoricalRankIndex struct {
	offers       map[models.OfferKey]*models.OfferHistory
	keys         []models.OfferKey
	facets       models.Facets
	observations int
}

// NewHistoricalRankIndex groups dataset rows by offer, orders each offer's
// observations by (year, round) and precomputes aggregate statistics.
func NewHistoricalRankIndex(rows []DatasetRow) *HistoricalRankIndex {
	idx := &HistoricalRankIndex{offers: make(map[models.OfferKey]*models.OfferHistory)}

	for _, row := range rows {
		normalized := normalizeKey(row.Key)
		hist, ok := idx.offers[normalized]
		if !ok {
			hist = &models.OfferHistory{Key: row.Key, Details: row.Details}
			idx.offers[normalized] = hist
			idx.keys = append(idx.keys, normalized)
		}
		mergeDetails(&hist.Details, row.Details)
		hist.Observations = append(hist.Observations, models.ClosingRankObservation{
			Key:         row.Key,
			Year:        row.Year,
			Round:       row.Round,
			ClosingRank: row.ClosingRank,
		})
		idx.observations++
	}

	for _, hist := range idx.offers {
		sort.Slice(hist.Observations, func(i, j int) bool {
			if hist.Observations[i].Year != hist.Observations[j].Year {
				return hist.Observations[i].Year < hist.Observations[j].Year
			}
			return hist.Observations[i].Round < hist.Observations[j].Round
		})
		hist.Stats = computeStats(hist.Observations)
	}

	sort.Slice(idx.keys, func(i, j int) bool { return lessKey(idx.keys[i], idx.keys[j]) })
	idx.facets = collectFacets(idx.offers)
	return idx
}

// Lookup returns the history for an offer key, matching case-insensitively.
func (idx *HistoricalRankIndex) Lookup(key models.OfferKey) (*models.OfferHistory, bool) {
	hist, ok := idx.offers[normalizeKey(key)]
	return hist, ok
}

// Filter returns the keys of offers matching every non-empty filter field as
// a case-insensitive substring, in deterministic order.
func (idx *HistoricalRankIndex) Filter(f models.OfferFilter) []models.OfferKey {
	matched := make([]models.OfferKey, 0)
	for _, key := range idx.keys {
		hist := idx.offers[key]
		if !containsFold(hist.Details.State, f.State) {
			continue
		}
		if !containsFold(hist.Key.Course, f.Course) {
			continue
		}
		if !containsFold(hist.Key.Category, f.Category) {
			continue
		}
		if !containsFold(hist.Key.Quota, f.Quota) {
			continue
		}
		matched = append(matched, hist.Key)
	}
	return matched
}

// Facets lists the distinct states, courses, categories and quotas present
// in the dataset.
func (idx *HistoricalRankIndex) Facets() models.Facets {
	return idx.facets
}

// Offers returns the number of distinct offer keys.
func (idx *HistoricalRankIndex) Offers() int { return len(idx.offers) }

// Observations returns the total number of closing-rank observations.
func (idx *HistoricalRankIndex) Observations() int { return idx.observations }

func normalizeKey(key models.OfferKey) models.OfferKey {
	return models.OfferKey{
		Institute: strings.ToUpper(strings.TrimSpace(key.Institute)),
		Course:    strings.ToUpper(strings.TrimSpace(key.Course)),
		Category:  strings.ToUpper(strings.TrimSpace(key.Category)),
		Quota:     strings.ToUpper(strings.TrimSpace(key.Quota)),
	}
}

func lessKey(a, b models.OfferKey) bool {
	if a.Institute != b.Institute {
		return a.Institute < b.Institute
	}
	if a.Course != b.Course {
		return a.Course < b.Course
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Quota < b.Quota
}

func containsFold(value, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(value), strings.ToUpper(strings.TrimSpace(filter)))
}

func mergeDetails(dst *models.OfferDetails, src models.OfferDetails) {
	if dst.State == "" {
		dst.State = src.State
	}
	if dst.AnnualFee == nil {
		dst.AnnualFee = src.AnnualFee
	}
	if dst.StipendYear1 == nil {
		dst.StipendYear1 = src.StipendYear1
	}
	if dst.BondYears == nil {
		dst.BondYears = src.BondYears
	}
	if dst.BondPenalty == nil {
		dst.BondPenalty = src.BondPenalty
	}
	if dst.TotalBeds == nil {
		dst.TotalBeds = src.TotalBeds
	}
}

func computeStats(observations []models.ClosingRankObservation) models.RankStats {
	if len(observations) == 0 {
		return models.RankStats{}
	}

	ranks := make([]int, 0, len(observations))
	years := make(map[int]struct{})
	yearMin, yearMax := observations[0].Year, observations[0].Year

	sum := 0.0
	min, max := observations[0].ClosingRank, observations[0].ClosingRank
	for _, obs := range observations {
		ranks = append(ranks, obs.ClosingRank)
		years[obs.Year] = struct{}{}
		sum += float64(obs.ClosingRank)
		if obs.ClosingRank < min {
			min = obs.ClosingRank
		}
		if obs.ClosingRank > max {
			max = obs.ClosingRank
		}
		if obs.Year < yearMin {
			yearMin = obs.Year
		}
		if obs.Year > yearMax {
			yearMax = obs.Year
		}
	}
	mean := sum / float64(len(ranks))

	variance := 0.0
	for _, r := range ranks {
		variance += (float64(r) - mean) * (float64(r) - mean)
	}
	variance /= float64(len(ranks))

	return models.RankStats{
		Mean:          mean,
		Median:        medianOf(ranks),
		Min:           min,
		Max:           max,
		StdDev:        math.Sqrt(variance),
		Count:         len(ranks),
		DistinctYears: len(years),
		YearMin:       yearMin,
		YearMax:       yearMax,
	}
}

func medianOf(ranks []int) float64 {
	sorted := append([]int(nil), ranks...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

func collectFacets(offers map[models.OfferKey]*models.OfferHistory) models.Facets {
	states := make(map[string]struct{})
	courses := make(map[string]struct{})
	categories := make(map[string]struct{})
	quotas := make(map[string]struct{})
	for _, hist := range offers {
		if hist.Details.State != "" {
			states[hist.Details.State] = struct{}{}
		}
		courses[hist.Key.Course] = struct{}{}
		categories[hist.Key.Category] = struct{}{}
		quotas[hist.Key.Quota] = struct{}{}
	}
	return models.Facets{
		States:     sortedKeys(states),
		Courses:    sortedKeys(courses),
		Categories: sortedKeys(categories),
		Quotas:     sortedKeys(quotas),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
