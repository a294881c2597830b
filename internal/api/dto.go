package api

import (
	"fmt"
	"strconv"

	"github.com/admitstack/admit-engine/internal/models"
)

// PredictRequest is the candidate query payload for POST /api/v1/predictions.
type PredictRequest struct {
	Rank       int    `json:"rank" validate:"required,gt=0"`
	Category   string `json:"category" validate:"required"`
	State      string `json:"state" validate:"omitempty,max=100"`
	Course     string `json:"course" validate:"omitempty,max=200"`
	Quota      string `json:"quota" validate:"omitempty,max=100"`
	MaxResults int    `json:"max_results" validate:"omitempty,gte=1,lte=200"`
}

// ToQuery converts the payload into the domain query.
func (r PredictRequest) ToQuery() models.CandidateQuery {
	return models.CandidateQuery{
		Rank:       r.Rank,
		Category:   r.Category,
		State:      r.State,
		Course:     r.Course,
		Quota:      r.Quota,
		MaxResults: r.MaxResults,
	}
}

// OfferPredictRequest names a single offer for POST /api/v1/predictions/offer.
type OfferPredictRequest struct {
	Rank      int    `json:"rank" validate:"required,gt=0"`
	Category  string `json:"category" validate:"required"`
	State     string `json:"state" validate:"omitempty,max=100"`
	Institute string `json:"institute" validate:"required"`
	Course    string `json:"course" validate:"required"`
	Quota     string `json:"quota" validate:"required"`
}

type offerKeyDTO struct {
	Institute string `json:"institute"`
	Course    string `json:"course"`
	Category  string `json:"category"`
	Quota     string `json:"quota"`
}

type confidenceIntervalDTO struct {
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel string  `json:"confidence_level"`
}

type roundProbabilityDTO struct {
	Probability    float64 `json:"probability"`
	Confidence     string  `json:"confidence"`
	Interpretation string  `json:"interpretation"`
	MedianRank     int     `json:"median_closing_rank"`
	Synthetic      bool    `json:"synthetic,omitempty"`
}

type roundPredictionsDTO struct {
	MostLikelyRound    *string                        `json:"most_likely_round"`
	RoundProbabilities map[string]roundProbabilityDTO `json:"round_probabilities"`
	CumulativeByRound  map[string]float64             `json:"cumulative_by_round,omitempty"`
}

type offerDetailsDTO struct {
	State        string   `json:"state,omitempty"`
	AnnualFee    *float64 `json:"annual_fee,omitempty"`
	StipendYear1 *float64 `json:"stipend_year_1,omitempty"`
	BondYears    *int     `json:"bond_years,omitempty"`
	BondPenalty  *float64 `json:"bond_penalty,omitempty"`
	TotalBeds    *int     `json:"total_beds,omitempty"`
}

type trendDTO struct {
	Direction         string  `json:"direction"`
	Volatility        string  `json:"volatility"`
	DataYears         int     `json:"data_years"`
	AvgYearChangePct  float64 `json:"avg_year_change_pct"`
	AvgRoundChangePct float64 `json:"avg_round_change_pct"`
}

type offerPredictionDTO struct {
	Offer                offerKeyDTO           `json:"offer"`
	Details              offerDetailsDTO       `json:"details"`
	AdmissionProbability float64               `json:"admission_probability"`
	PredictedClosingRank int                   `json:"predicted_closing_rank"`
	ConfidenceInterval   confidenceIntervalDTO `json:"confidence_interval"`
	RoundPredictions     roundPredictionsDTO   `json:"round_predictions"`
	RecommendationScore  float64               `json:"recommendation_score"`
	Trend                *trendDTO             `json:"trend,omitempty"`
	Degraded             bool                  `json:"degraded,omitempty"`
}

type strategyEntryDTO struct {
	Offer        offerKeyDTO `json:"offer"`
	Probability  float64     `json:"probability"`
	Confidence   string      `json:"confidence"`
	OptimalRound int         `json:"optimal_round,omitempty"`
}

type strategyDTO struct {
	OverallApproach string             `json:"overall_approach"`
	RiskNote        string             `json:"risk_note,omitempty"`
	Priority        []strategyEntryDTO `json:"priority"`
	Backup          []strategyEntryDTO `json:"backup"`
	Notes           []string           `json:"notes,omitempty"`
}

type summaryDTO struct {
	HighChanceCount    int     `json:"high_chance_count"`
	MediumChanceCount  int     `json:"medium_chance_count"`
	LowChanceCount     int     `json:"low_chance_count"`
	AverageProbability float64 `json:"average_probability"`
	MinAnnualFee       float64 `json:"min_annual_fee,omitempty"`
	MaxAnnualFee       float64 `json:"max_annual_fee,omitempty"`
	AvgAnnualFee       float64 `json:"avg_annual_fee,omitempty"`
	RankPercentile     string  `json:"rank_percentile,omitempty"`
}

// PredictResponse is the full body for POST /api/v1/predictions.
type PredictResponse struct {
	Predictions []offerPredictionDTO `json:"predictions"`
	Strategy    strategyDTO          `json:"counseling_strategy"`
	Summary     summaryDTO           `json:"summary"`
	TotalFound  int                  `json:"total_found"`
	Message     string               `json:"message,omitempty"`
}

// HealthResponse reports liveness plus the size of the loaded dataset.
type HealthResponse struct {
	Status       string `json:"status"`
	Offers       int    `json:"offers"`
	Observations int    `json:"observations"`
}

// FiltersResponse lists the dataset's filterable values.
type FiltersResponse struct {
	States     []string `json:"states"`
	Courses    []string `json:"courses"`
	Categories []string `json:"categories"`
	Quotas     []string `json:"quotas"`
}

func toPredictResponse(set *models.PredictionSet) PredictResponse {
	resp := PredictResponse{
		Predictions: make([]offerPredictionDTO, 0, len(set.Predictions)),
		Strategy:    toStrategyDTO(set.Strategy),
		Summary:     toSummaryDTO(set.Summary),
		TotalFound:  set.TotalFound,
		Message:     set.Message,
	}
	for _, pred := range set.Predictions {
		resp.Predictions = append(resp.Predictions, toOfferPredictionDTO(pred))
	}
	return resp
}

func toOfferPredictionDTO(pred models.OfferPrediction) offerPredictionDTO {
	dto := offerPredictionDTO{
		Offer:                toOfferKeyDTO(pred.Key),
		Details:              toOfferDetailsDTO(pred.Details),
		AdmissionProbability: pred.Probability,
		PredictedClosingRank: pred.PredictedClosingRank,
		ConfidenceInterval: confidenceIntervalDTO{
			LowerBound:      pred.Interval.Lower,
			UpperBound:      pred.Interval.Upper,
			ConfidenceLevel: string(pred.Interval.Level),
		},
		RoundPredictions:    toRoundPredictionsDTO(pred.Rounds),
		RecommendationScore: pred.Score,
		Degraded:            pred.Degraded,
	}
	if pred.Trend.Direction != "" {
		dto.Trend = &trendDTO{
			Direction:         pred.Trend.Direction,
			Volatility:        pred.Trend.Volatility,
			DataYears:         pred.Trend.DataYears,
			AvgYearChangePct:  pred.Trend.AvgYearChangePct,
			AvgRoundChangePct: pred.Trend.AvgRoundChangePct,
		}
	}
	return dto
}

func toRoundPredictionsDTO(rounds models.RoundBreakdown) roundPredictionsDTO {
	dto := roundPredictionsDTO{
		RoundProbabilities: make(map[string]roundProbabilityDTO, len(rounds.Predictions)),
	}
	if rounds.OptimalRound > 0 {
		label := fmt.Sprintf("round_%d", rounds.OptimalRound)
		dto.MostLikelyRound = &label
	}
	for _, rp := range rounds.Predictions {
		dto.RoundProbabilities[strconv.Itoa(rp.Round)] = roundProbabilityDTO{
			Probability:    rp.Probability,
			Confidence:     string(rp.Confidence),
			Interpretation: rp.Interpretation,
			MedianRank:     rp.MedianClosingRank,
			Synthetic:      rp.Synthetic,
		}
	}
	if len(rounds.Cumulative) > 0 {
		dto.CumulativeByRound = make(map[string]float64, len(rounds.Cumulative))
		for _, cr := range rounds.Cumulative {
			dto.CumulativeByRound[strconv.Itoa(cr.Round)] = cr.Probability
		}
	}
	return dto
}

func toStrategyDTO(strategy models.CounselingStrategy) strategyDTO {
	dto := strategyDTO{
		OverallApproach: string(strategy.Approach),
		RiskNote:        strategy.RiskNote,
		Priority:        make([]strategyEntryDTO, 0, len(strategy.Priority)),
		Backup:          make([]strategyEntryDTO, 0, len(strategy.Backup)),
		Notes:           strategy.Notes,
	}
	for _, entry := range strategy.Priority {
		dto.Priority = append(dto.Priority, toStrategyEntryDTO(entry))
	}
	for _, entry := range strategy.Backup {
		dto.Backup = append(dto.Backup, toStrategyEntryDTO(entry))
	}
	return dto
}

func toStrategyEntryDTO(entry models.StrategyEntry) strategyEntryDTO {
	return strategyEntryDTO{
		Offer:        toOfferKeyDTO(entry.Key),
		Probability:  entry.Probability,
		Confidence:   string(entry.Confidence),
		OptimalRound: entry.OptimalRound,
	}
}

func toSummaryDTO(summary models.ComparativeSummary) summaryDTO {
	return summaryDTO{
		HighChanceCount:    summary.Bands.High,
		MediumChanceCount:  summary.Bands.Medium,
		LowChanceCount:     summary.Bands.Low,
		AverageProbability: summary.Bands.Average,
		MinAnnualFee:       summary.Fees.Min,
		MaxAnnualFee:       summary.Fees.Max,
		AvgAnnualFee:       summary.Fees.Average,
		RankPercentile:     summary.RankPercentile,
	}
}

func toOfferKeyDTO(key models.OfferKey) offerKeyDTO {
	return offerKeyDTO{
		Institute: key.Institute,
		Course:    key.Course,
		Category:  key.Category,
		Quota:     key.Quota,
	}
}

func toOfferDetailsDTO(details models.OfferDetails) offerDetailsDTO {
	return offerDetailsDTO{
		State:        details.State,
		AnnualFee:    details.AnnualFee,
		StipendYear1: details.StipendYear1,
		BondYears:    details.BondYears,
		BondPenalty:  details.BondPenalty,
		TotalBeds:    details.TotalBeds,
	}
}
