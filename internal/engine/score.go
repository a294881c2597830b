package engine

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/admitstack/admit-engine/internal/models"
)

// Weights is the configuration-driven weighting of the recommendation score.
// Every factor is a named field; the sum must be 1.0.
type Weights struct {
	Probability     float64 `yaml:"probability"`
	Competitiveness float64 `yaml:"competitiveness"`
	InstitutionType float64 `yaml:"institution_type"`
	Affordability   float64 `yaml:"affordability"`
	Stipend         float64 `yaml:"stipend"`
	BondTerms       float64 `yaml:"bond_terms"`
	StateMatch      float64 `yaml:"state_match"`
}

// DefaultWeights returns the built-in weight profile. Admission probability
// dominates; everything else nudges the ordering.
func DefaultWeights() Weights {
	return Weights{
		Probability:     0.50,
		Competitiveness: 0.15,
		InstitutionType: 0.10,
		Affordability:   0.10,
		Stipend:         0.05,
		BondTerms:       0.05,
		StateMatch:      0.05,
	}
}

// LoadWeights reads a YAML weight profile. An empty path or a missing file
// falls back to the defaults; a present but invalid profile is an error so a
// typo cannot silently reorder every recommendation.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}
		return w, fmt.Errorf("read weights %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parse weights %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return w, fmt.Errorf("weights %s: %w", path, err)
	}
	return w, nil
}

// Validate checks every weight is non-negative and the sum is 1.0 within a
// small tolerance.
func (w Weights) Validate() error {
	fields := map[string]float64{
		"probability":      w.Probability,
		"competitiveness":  w.Competitiveness,
		"institution_type": w.InstitutionType,
		"affordability":    w.Affordability,
		"stipend":          w.Stipend,
		"bond_terms":       w.BondTerms,
		"state_match":      w.StateMatch,
	}
	sum := 0.0
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("weight %s is negative", name)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

// Affordability fee buckets (annual fee in the dataset's currency units).
const (
	feeLowCeiling = 100000.0
	feeMidCeiling = 500000.0
)

// RecommendationScorer combines admission probability with cost, stipend,
// bond terms and candidate preference into one composite ranking score.
// Missing offer attributes contribute their neutral half-share instead of
// failing: historical records are frequently incomplete.
type RecommendationScorer struct {
	weights Weights
}

// NewRecommendationScorer creates a scorer with the given weight profile.
func NewRecommendationScorer(weights Weights) *RecommendationScorer {
	return &RecommendationScorer{weights: weights}
}

// Score computes the composite score in [0, 1] for one predicted offer.
func (s *RecommendationScorer) Score(pred models.OfferPrediction, query models.CandidateQuery) float64 {
	w := s.weights
	score := w.Probability * pred.Probability

	score += w.Competitiveness * competitivenessFactor(query.Rank, pred.PredictedClosingRank)
	score += w.InstitutionType * institutionTypeFactor(pred.Key.Quota)
	score += w.Affordability * optionalFactor(pred.Details.AnnualFee, affordabilityFactor)
	score += w.Stipend * optionalFactor(pred.Details.StipendYear1, stipendFactor)
	score += w.BondTerms * bondFactor(pred.Details.BondYears)
	score += w.StateMatch * stateMatchFactor(pred.Details.State, query.State)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// optionalFactor evaluates a factor over a pointer field, substituting the
// neutral value 0.5 when the field is absent.
func optionalFactor(v *float64, f func(float64) float64) float64 {
	if v == nil {
		return 0.5
	}
	return f(*v)
}

// competitivenessFactor rewards a candidate rank better than the predicted
// closing rank, scaled by the relative headroom (predicted - rank) / predicted.
func competitivenessFactor(candidateRank, predictedClosing int) float64 {
	if predictedClosing <= 0 {
		return 0.5
	}
	if candidateRank > predictedClosing {
		return 0
	}
	factor := float64(predictedClosing-candidateRank) / float64(predictedClosing)
	if factor > 1 {
		return 1
	}
	return factor
}

// institutionTypeFactor favors government seat pools, read off the quota
// label since the dataset carries no explicit ownership column. Private and
// unrecognized pools take the half share.
func institutionTypeFactor(quota string) float64 {
	q := strings.ToUpper(quota)
	if strings.Contains(q, "GOVERNMENT") || strings.Contains(q, "CENTRAL") || strings.Contains(q, "ALL INDIA") {
		return 1
	}
	return 0.5
}

func affordabilityFactor(annualFee float64) float64 {
	switch {
	case annualFee <= feeLowCeiling:
		return 1
	case annualFee <= feeMidCeiling:
		return 0.5
	default:
		return 0
	}
}

func stipendFactor(stipend float64) float64 {
	if stipend > 0 {
		return 1
	}
	return 0
}

// bondFactor favors zero bond and actively penalizes bonds past five years:
// the factor goes negative so a long bond subtracts from the score. A missing
// bond field is neutral.
func bondFactor(bondYears *int) float64 {
	if bondYears == nil {
		return 0.5
	}
	switch years := *bondYears; {
	case years == 0:
		return 1
	case years <= 2:
		return 0.5
	case years <= 5:
		return 0
	default:
		return -0.5
	}
}

func stateMatchFactor(offerState, preferredState string) float64 {
	if preferredState == "" || offerState == "" {
		return 0.5
	}
	if strings.EqualFold(strings.TrimSpace(offerState), strings.TrimSpace(preferredState)) {
		return 1
	}
	return 0
}
