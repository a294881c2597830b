package engine

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/admitstack/admit-engine/internal/models"
	"github.com/admitstack/admit-engine/internal/repo"
)

// Fallback values for offers with no history at all. Documented policy, not
// a guess: the caller still receives a usable, clearly degraded result.
const (
	fallbackProbability = 0.05
	fallbackRankMargin  = 5000
)

const defaultEvalWorkers = 8

// TrendAnalyzer summarises how an offer's cutoffs moved across years.
type TrendAnalyzer interface {
	Summarize(hist *models.OfferHistory) models.TrendSummary
}

// Pipeline orchestrates one candidate query end to end: filter the index,
// evaluate every matching offer concurrently, rank by recommendation score,
// then assemble the counseling strategy and comparative summary.
type Pipeline struct {
	index   *repo.HistoricalRankIndex
	prob    *ProbabilityModel
	conf    *ConfidenceEstimator
	rounds  *RoundAnalyzer
	scorer  *RecommendationScorer
	planner *StrategyPlanner
	trends  TrendAnalyzer

	maxRank    int
	maxResults int
	workers    int
	logger     *slog.Logger
}

// PipelineConfig carries the tunables of the evaluation pipeline.
type PipelineConfig struct {
	MaxRank    int
	MaxResults int
	Workers    int
}

// NewPipeline wires the evaluation pipeline over a built index.
func NewPipeline(
	index *repo.HistoricalRankIndex,
	weights Weights,
	trends TrendAnalyzer,
	cfg PipelineConfig,
	logger *slog.Logger,
) *Pipeline {
	prob := NewProbabilityModel()
	conf := NewConfidenceEstimator()
	if cfg.Workers <= 0 {
		cfg.Workers = defaultEvalWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		index:      index,
		prob:       prob,
		conf:       conf,
		rounds:     NewRoundAnalyzer(prob, conf),
		scorer:     NewRecommendationScorer(weights),
		planner:    NewStrategyPlanner(),
		trends:     trends,
		maxRank:    cfg.MaxRank,
		maxResults: cfg.MaxResults,
		workers:    cfg.Workers,
		logger:     logger,
	}
}

// Predict evaluates every offer matching the query's filters and returns the
// ranked prediction set with strategy and summary.
func (p *Pipeline) Predict(ctx context.Context, query models.CandidateQuery) (*models.PredictionSet, error) {
	keys := p.index.Filter(models.OfferFilter{
		State:    query.State,
		Course:   query.Course,
		Category: query.Category,
		Quota:    query.Quota,
	})
	if len(keys) == 0 {
		return &models.PredictionSet{
			Predictions: []models.OfferPrediction{},
			Strategy:    p.planner.Plan(nil, query.Rank),
			Message:     "No historical offers match the given filters; widen the state, course or quota filters.",
		}, nil
	}

	results := make([]models.OfferPrediction, len(keys))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, key models.OfferKey) {
			defer wg.Done()
			defer func() { <-sem }()
			hist, _ := p.index.Lookup(key)
			results[i] = p.evaluateOffer(query, hist)
		}(i, key)
	}
	wg.Wait()

	// Drop offers below the viability floor; they carry no counseling value
	// and would drown the strategy in noise.
	viable := results[:0]
	for _, pred := range results {
		if pred.Probability < viabilityFloor {
			continue
		}
		viable = append(viable, pred)
	}

	sort.SliceStable(viable, func(i, j int) bool {
		if viable[i].Score != viable[j].Score {
			return viable[i].Score > viable[j].Score
		}
		return keyLess(viable[i].Key, viable[j].Key)
	})

	totalFound := len(viable)
	limit := p.maxResults
	if query.MaxResults > 0 && query.MaxResults < limit {
		limit = query.MaxResults
	}
	if limit > 0 && len(viable) > limit {
		viable = viable[:limit]
	}

	set := &models.PredictionSet{
		Predictions: viable,
		Strategy:    p.planner.Plan(viable, query.Rank),
		Summary:     p.summarize(viable, query.Rank),
		TotalFound:  totalFound,
	}
	if totalFound == 0 {
		set.Message = "All matching offers fall below the viability floor for this rank."
	}

	p.logger.Debug("prediction set assembled",
		"rank", query.Rank,
		"matched", len(keys),
		"viable", totalFound,
		"returned", len(set.Predictions))
	return set, nil
}

// PredictOffer evaluates a single named offer. An offer with no history
// yields the documented degraded fallback rather than an error.
func (p *Pipeline) PredictOffer(ctx context.Context, query models.CandidateQuery, key models.OfferKey) (models.OfferPrediction, error) {
	if err := ctx.Err(); err != nil {
		return models.OfferPrediction{}, err
	}
	hist, ok := p.index.Lookup(key)
	if !ok {
		p.logger.Debug("offer not found, returning degraded prediction",
			"institute", key.Institute, "course", key.Course)
		return degradedPrediction(key, query.Rank), nil
	}
	return p.evaluateOffer(query, hist), nil
}

func (p *Pipeline) evaluateOffer(query models.CandidateQuery, hist *models.OfferHistory) models.OfferPrediction {
	if hist == nil || len(hist.Observations) == 0 {
		key := models.OfferKey{}
		if hist != nil {
			key = hist.Key
		}
		return degradedPrediction(key, query.Rank)
	}

	var overall float64
	if hist.HasRoundData() {
		overall = p.prob.Overall(query.Rank, hist.Observations)
	} else {
		// Without round attribution the per-observation maximum overstates
		// certainty; use the distribution over the aggregate instead.
		std := DistributionStd(hist.Stats)
		overall = ClampProbability(p.prob.EstimateFromDistribution(query.Rank, hist.Stats.Mean, std))
	}

	rounds := p.rounds.Analyze(query.Rank, hist)
	predicted := predictedClosingRank(hist, rounds)

	pred := models.OfferPrediction{
		Key:                  hist.Key,
		Details:              hist.Details,
		Probability:          overall,
		PredictedClosingRank: predicted,
		Interval:             p.conf.Interval(overall, hist.Stats),
		Rounds:               rounds,
	}
	if p.trends != nil {
		pred.Trend = p.trends.Summarize(hist)
	}
	pred.Score = p.scorer.Score(pred, query)
	return pred
}

func degradedPrediction(key models.OfferKey, candidateRank int) models.OfferPrediction {
	pred := models.OfferPrediction{
		Key:                  key,
		Probability:          fallbackProbability,
		PredictedClosingRank: candidateRank + fallbackRankMargin,
		Interval: models.ConfidenceInterval{
			Lower:  0,
			Upper:  fallbackProbability + marginLow,
			Margin: marginLow,
			Level:  models.ConfidenceLow,
		},
		Degraded: true,
	}
	return pred
}

// predictedClosingRank is the median of the optimal round when round data
// exists, else the aggregate mean.
func predictedClosingRank(hist *models.OfferHistory, rounds models.RoundBreakdown) int {
	for _, rp := range rounds.Predictions {
		if rp.Round == rounds.OptimalRound && !rp.Synthetic {
			return rp.MedianClosingRank
		}
	}
	return int(math.Round(hist.Stats.Mean))
}

func (p *Pipeline) summarize(predictions []models.OfferPrediction, candidateRank int) models.ComparativeSummary {
	summary := models.ComparativeSummary{
		RankPercentile: rankPercentile(candidateRank, p.maxRank),
	}
	if len(predictions) == 0 {
		return summary
	}

	sum := 0.0
	for _, pred := range predictions {
		sum += pred.Probability
		switch {
		case pred.Probability >= 0.7:
			summary.Bands.High++
		case pred.Probability >= 0.4:
			summary.Bands.Medium++
		default:
			summary.Bands.Low++
		}

		if pred.Details.AnnualFee == nil {
			continue
		}
		fee := *pred.Details.AnnualFee
		if summary.Fees.Known == 0 || fee < summary.Fees.Min {
			summary.Fees.Min = fee
		}
		if fee > summary.Fees.Max {
			summary.Fees.Max = fee
		}
		summary.Fees.Average += fee
		summary.Fees.Known++
	}
	summary.Bands.Average = sum / float64(len(predictions))
	if summary.Fees.Known > 0 {
		summary.Fees.Average /= float64(summary.Fees.Known)
	}
	return summary
}

func rankPercentile(candidateRank, maxRank int) string {
	if maxRank <= 0 || candidateRank <= 0 {
		return ""
	}
	fraction := float64(candidateRank) / float64(maxRank)
	switch {
	case fraction <= 0.05:
		return "Top 5%"
	case fraction <= 0.15:
		return "Top 15%"
	case fraction <= 0.30:
		return "Top 30%"
	case fraction <= 0.60:
		return "Top 60%"
	default:
		return "Above 60%"
	}
}

func keyLess(a, b models.OfferKey) bool {
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
