package models

// OfferKey identifies a single admission offer: one seat pool at one
// institute for one course, category and quota.
type OfferKey struct {
	Institute string
	Course    string
	Category  string
	Quota     string
}

// ClosingRankObservation is one historical fact: the worst rank that was
// still admitted to an offer in a given counseling round of a given year.
// Round 0 means the source table did not attribute the cutoff to a round.
type ClosingRankObservation struct {
	Key         OfferKey
	Year        int
	Round       int
	ClosingRank int
}

// OfferDetails carries the non-rank attributes of an offer. Pointer fields
// are nil when the source table had no value; scoring treats absent fields
// as neutral rather than failing.
type OfferDetails struct {
	State        string
	AnnualFee    *float64
	StipendYear1 *float64
	BondYears    *int
	BondPenalty  *float64
	TotalBeds    *int
}

// RankStats holds aggregates over all closing-rank observations of one offer.
type RankStats struct {
	Mean          float64
	Median        float64
	Min           int
	Max           int
	StdDev        float64
	Count         int
	DistinctYears int
	YearMin       int
	YearMax       int
}

// CoefficientOfVariation returns std/mean, the stability measure behind
// confidence levels. Returns 1 when the mean is not positive so that empty
// or degenerate histories land in the Low band.
func (s RankStats) CoefficientOfVariation() float64 {
	if s.Mean <= 0 {
		return 1
	}
	return s.StdDev / s.Mean
}

// OfferHistory is the per-offer view owned by the index: ordered observations
// plus precomputed aggregates. Immutable after the index is built.
type OfferHistory struct {
	Key          OfferKey
	Details      OfferDetails
	Observations []ClosingRankObservation
	Stats        RankStats
}

// HasRoundData reports whether any observation is attributed to a concrete
// counseling round. When false, round predictions must be synthesized.
func (h *OfferHistory) HasRoundData() bool {
	for _, obs := range h.Observations {
		if obs.Round >= 1 {
			return true
		}
	}
	return false
}
