package models

// ConfidenceLevel is a categorical reliability label derived from sample
// size and variability of the backing history, not a statistical p-value.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// ConfidenceInterval bounds a point probability. Margin is the half-width
// applied before clamping to [0,1].
type ConfidenceInterval struct {
	Lower  float64
	Upper  float64
	Margin float64
	Level  ConfidenceLevel
}

// RoundPrediction is the per-round result for one offer. Synthetic marks
// estimates derived from the aggregate history because the source table never
// attributed cutoffs to rounds; those must not be presented as measured data.
type RoundPrediction struct {
	Round             int
	Probability       float64
	Confidence        ConfidenceLevel
	MedianClosingRank int
	Interpretation    string
	Synthetic         bool
}

// CumulativeRound is the probability of admission in some round up to and
// including Round, under an independence approximation across rounds.
type CumulativeRound struct {
	Round       int
	Probability float64
}

// RoundBreakdown aggregates the round-level analysis for one offer.
// OptimalRound is 0 when no round data could be derived.
type RoundBreakdown struct {
	Predictions  []RoundPrediction
	Cumulative   []CumulativeRound
	OptimalRound int
}

// TrendSummary describes how an offer's cutoffs have moved across years.
type TrendSummary struct {
	Direction         string
	Volatility        string
	DataYears         int
	AvgYearChangePct  float64
	AvgRoundChangePct float64
}

// OfferPrediction is the full result for one offer given one candidate rank.
// Created fresh per query and immutable once returned. Degraded marks the
// documented fallback used when the offer has no history at all.
type OfferPrediction struct {
	Key                  OfferKey
	Details              OfferDetails
	Probability          float64
	PredictedClosingRank int
	Interval             ConfidenceInterval
	Rounds               RoundBreakdown
	Score                float64
	Trend                TrendSummary
	Degraded             bool
}

// Approach labels the overall counseling posture derived from the best
// available probability.
type Approach string

const (
	ApproachAggressive   Approach = "Aggressive"
	ApproachBalanced     Approach = "Balanced"
	ApproachConservative Approach = "Conservative"
)

// StrategyEntry points at one offer inside a strategy group.
type StrategyEntry struct {
	Key          OfferKey
	Probability  float64
	Confidence   ConfidenceLevel
	OptimalRound int
}

// CounselingStrategy partitions a candidate's result set into priority and
// backup groups and carries advisory notes. Offers below the viability floor
// are filtered before planning and never appear here.
type CounselingStrategy struct {
	Approach Approach
	RiskNote string
	Priority []StrategyEntry
	Backup   []StrategyEntry
	Notes    []string
}

// ProbabilityBands counts predictions by probability band for the
// comparative summary.
type ProbabilityBands struct {
	High    int
	Medium  int
	Low     int
	Average float64
}

// FeeSummary aggregates known annual fees across a result set.
type FeeSummary struct {
	Min     float64
	Max     float64
	Average float64
	Known   int
}

// ComparativeSummary gives the candidate context across the whole result set.
type ComparativeSummary struct {
	Bands          ProbabilityBands
	Fees           FeeSummary
	RankPercentile string
}

// PredictionSet is the complete response for one CandidateQuery.
type PredictionSet struct {
	Predictions []OfferPrediction
	Strategy    CounselingStrategy
	Summary     ComparativeSummary
	TotalFound  int
	Message     string
}
