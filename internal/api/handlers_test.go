package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/admitstack/admit-engine/internal/models"
)

type stubService struct {
	set          *models.PredictionSet
	pred         models.OfferPrediction
	err          error
	lastKey      models.OfferKey
	offers       int
	observations int
}

func (s *stubService) Predict(_ context.Context, query models.CandidateQuery) (*models.PredictionSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.set, nil
}

func (s *stubService) PredictOffer(_ context.Context, _ models.CandidateQuery, key models.OfferKey) (models.OfferPrediction, error) {
	s.lastKey = key
	if s.err != nil {
		return models.OfferPrediction{}, s.err
	}
	return s.pred, nil
}

func (s *stubService) Facets() models.Facets {
	return models.Facets{
		States:     []string{"DELHI"},
		Courses:    []string{"MBBS"},
		Categories: []string{"GENERAL"},
		Quotas:     []string{"ALL INDIA"},
	}
}

func (s *stubService) DatasetSize() (int, int) {
	return s.offers, s.observations
}

func sampleSet() *models.PredictionSet {
	return &models.PredictionSet{
		Predictions: []models.OfferPrediction{
			{
				Key:                  models.OfferKey{Institute: "AIIMS DELHI", Course: "MBBS", Category: "GENERAL", Quota: "ALL INDIA"},
				Probability:          0.82,
				PredictedClosingRank: 25500,
				Interval:             models.ConfidenceInterval{Lower: 0.77, Upper: 0.87, Margin: 0.05, Level: models.ConfidenceHigh},
				Rounds: models.RoundBreakdown{
					Predictions: []models.RoundPrediction{
						{Round: 1, Probability: 0.82, Confidence: models.ConfidenceHigh, MedianClosingRank: 25500, Interpretation: "Very High - Strong likelihood of admission in this round"},
					},
					Cumulative:   []models.CumulativeRound{{Round: 1, Probability: 0.82}},
					OptimalRound: 1,
				},
				Score: 0.79,
			},
		},
		Strategy: models.CounselingStrategy{
			Approach: models.ApproachAggressive,
			Priority: []models.StrategyEntry{{Key: models.OfferKey{Institute: "AIIMS DELHI"}, Probability: 0.82, Confidence: models.ConfidenceHigh, OptimalRound: 1}},
		},
		Summary:    models.ComparativeSummary{Bands: models.ProbabilityBands{High: 1, Average: 0.82}, RankPercentile: "Top 5%"},
		TotalFound: 1,
	}
}

func newTestServer(svc PredictionService) *httptest.Server {
	server := NewServer(ServerOptions{Address: ":0"}, svc, nil)
	return httptest.NewServer(server.httpServer.Handler)
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{set: sampleSet()})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/v1/predictions", `{"rank": 25000, "category": "GENERAL"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("response should carry a request id")
	}

	var body PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(body.Predictions))
	}
	pred := body.Predictions[0]
	if pred.AdmissionProbability != 0.82 {
		t.Fatalf("admission_probability = %v", pred.AdmissionProbability)
	}
	if pred.ConfidenceInterval.ConfidenceLevel != "High" {
		t.Fatalf("confidence_level = %s", pred.ConfidenceInterval.ConfidenceLevel)
	}
	if pred.RoundPredictions.MostLikelyRound == nil || *pred.RoundPredictions.MostLikelyRound != "round_1" {
		t.Fatalf("most_likely_round = %v", pred.RoundPredictions.MostLikelyRound)
	}
	if _, ok := pred.RoundPredictions.RoundProbabilities["1"]; !ok {
		t.Fatal("round_probabilities missing round 1")
	}
	if body.Strategy.OverallApproach != "Aggressive" {
		t.Fatalf("overall_approach = %s", body.Strategy.OverallApproach)
	}
}

func TestPredictEndpointValidation(t *testing.T) {
	srv := newTestServer(&stubService{set: sampleSet()})
	defer srv.Close()

	cases := []string{
		`{"rank": 0, "category": "GENERAL"}`,
		`{"rank": 25000}`,
		`{"rank": "abc", "category": "GENERAL"}`,
		`{"rank": 25000, "category": "GENERAL", "unknown_field": true}`,
	}
	for _, body := range cases {
		resp := postJSON(t, srv.URL+"/api/v1/predictions", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPredictEndpointInvalidRankError(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("%w: rank out of range", models.ErrInvalidRank)}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/v1/predictions", `{"rank": 9999999, "category": "GENERAL"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPredictEndpointInternalError(t *testing.T) {
	svc := &stubService{err: errors.New("boom")}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/v1/predictions", `{"rank": 25000, "category": "GENERAL"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(body["error"], "boom") {
		t.Fatal("internal error detail should not leak to clients")
	}
}

func TestPredictOfferEndpoint(t *testing.T) {
	svc := &stubService{pred: sampleSet().Predictions[0]}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/v1/predictions/offer", `{"rank": 25000, "category": "GENERAL", "institute": "AIIMS DELHI", "course": "MBBS", "quota": "ALL INDIA"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if svc.lastKey.Institute != "AIIMS DELHI" || svc.lastKey.Category != "GENERAL" {
		t.Fatalf("offer key not forwarded: %+v", svc.lastKey)
	}
}

func TestFiltersEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/filters")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body FiltersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.States) != 1 || body.States[0] != "DELHI" {
		t.Fatalf("unexpected states: %+v", body.States)
	}
}

func TestHealthEndpointReportsDatasetSize(t *testing.T) {
	srv := newTestServer(&stubService{offers: 420, observations: 9001})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("status = %q, want ok", body.Status)
	}
	if body.Offers != 420 || body.Observations != 9001 {
		t.Fatalf("dataset counts = %d/%d, want 420/9001", body.Offers, body.Observations)
	}
}
