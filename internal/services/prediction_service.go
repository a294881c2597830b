package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/admitstack/admit-engine/internal/cache"
	"github.com/admitstack/admit-engine/internal/engine"
	"github.com/admitstack/admit-engine/internal/metrics"
	"github.com/admitstack/admit-engine/internal/models"
	"github.com/admitstack/admit-engine/internal/repo"
	"github.com/admitstack/admit-engine/internal/utils"
)

// PredictionService is the application facade over the evaluation pipeline:
// input validation, result caching and operational telemetry live here, so
// the engine stays pure computation.
type PredictionService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	index     *repo.HistoricalRankIndex
	cache     cache.Provider
	cacheTTL  time.Duration
	maxRank   int
	latencies *utils.LatencyTracker
}

// NewPredictionService constructs the prediction service facade. A nil cache
// provider disables caching.
func NewPredictionService(logger *slog.Logger, pipeline *engine.Pipeline, index *repo.HistoricalRankIndex, provider cache.Provider, cacheTTL time.Duration, maxRank int) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &PredictionService{
		logger:    logger,
		pipeline:  pipeline,
		index:     index,
		cache:     provider,
		cacheTTL:  cacheTTL,
		maxRank:   maxRank,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Predict validates the query, serves from cache when possible, and runs the
// evaluation pipeline otherwise.
func (s *PredictionService) Predict(ctx context.Context, query models.CandidateQuery) (*models.PredictionSet, error) {
	if err := s.validateRank(query.Rank); err != nil {
		return nil, err
	}

	key := s.cacheKey("predict", query)
	if set, ok := s.cachedSet(ctx, key); ok {
		return set, nil
	}

	start := time.Now()
	set, err := s.pipeline.Predict(ctx, query)
	duration := time.Since(start)
	if err != nil {
		metrics.ObservePrediction(duration, metrics.OutcomeError)
		s.logger.Error("prediction pipeline failed", slog.Any("error", err))
		return nil, utils.NewAppError("predict", "prediction pipeline failed", err)
	}

	s.latencies.Observe(duration)
	metrics.ObservePrediction(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("prediction latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	s.storeSet(ctx, key, set)
	return set, nil
}

// PredictOffer validates the query and evaluates a single named offer. An
// unknown offer yields the documented degraded prediction, never an error.
func (s *PredictionService) PredictOffer(ctx context.Context, query models.CandidateQuery, key models.OfferKey) (models.OfferPrediction, error) {
	if err := s.validateRank(query.Rank); err != nil {
		return models.OfferPrediction{}, err
	}

	start := time.Now()
	pred, err := s.pipeline.PredictOffer(ctx, query, key)
	duration := time.Since(start)
	if err != nil {
		metrics.ObservePrediction(duration, metrics.OutcomeError)
		return models.OfferPrediction{}, utils.NewAppError("predict_offer", "offer prediction failed", err)
	}
	s.latencies.Observe(duration)
	metrics.ObservePrediction(duration, metrics.OutcomeSuccess)
	return pred, nil
}

// Facets exposes the dataset's filterable values.
func (s *PredictionService) Facets() models.Facets {
	return s.index.Facets()
}

// DatasetSize reports how many offers and closing-rank observations the
// loaded index holds.
func (s *PredictionService) DatasetSize() (offers, observations int) {
	return s.index.Offers(), s.index.Observations()
}

// LatencyP95 returns the current p95 prediction latency.
func (s *PredictionService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

func (s *PredictionService) validateRank(rank int) error {
	if rank <= 0 {
		return fmt.Errorf("%w: rank must be positive, got %d", models.ErrInvalidRank, rank)
	}
	if s.maxRank > 0 && rank > s.maxRank {
		return fmt.Errorf("%w: rank %d exceeds supported maximum %d", models.ErrInvalidRank, rank, s.maxRank)
	}
	return nil
}

func (s *PredictionService) cacheKey(op string, query models.CandidateQuery) string {
	payload, err := json.Marshal(query)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return "admit:" + op + ":" + hex.EncodeToString(sum[:16])
}

func (s *PredictionService) cachedSet(ctx context.Context, key string) (*models.PredictionSet, bool) {
	if key == "" || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			s.logger.Warn("prediction cache read failed", slog.Any("error", err))
		}
		metrics.ObserveCacheLookup(false)
		return nil, false
	}
	var set models.PredictionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		s.logger.Warn("prediction cache entry corrupt", slog.Any("error", err))
		metrics.ObserveCacheLookup(false)
		return nil, false
	}
	metrics.ObserveCacheLookup(true)
	return &set, true
}

func (s *PredictionService) storeSet(ctx context.Context, key string, set *models.PredictionSet) {
	if key == "" || s.cacheTTL <= 0 || set == nil {
		return
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("prediction cache write failed", slog.Any("error", err))
	}
}
