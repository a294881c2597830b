package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/admitstack/admit-engine/internal/models"
)

// Handlers bundles the HTTP endpoints over the prediction service.
type Handlers struct {
	service  PredictionService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandlers constructs the endpoint set.
func NewHandlers(service PredictionService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Predict handles POST /api/v1/predictions.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !h.decode(w, r, &req) {
		return
	}

	set, err := h.service.Predict(r.Context(), req.ToQuery())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPredictResponse(set))
}

// PredictOffer handles POST /api/v1/predictions/offer.
func (h *Handlers) PredictOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferPredictRequest
	if !h.decode(w, r, &req) {
		return
	}

	query := models.CandidateQuery{Rank: req.Rank, Category: req.Category, State: req.State}
	key := models.OfferKey{
		Institute: req.Institute,
		Course:    req.Course,
		Category:  req.Category,
		Quota:     req.Quota,
	}
	pred, err := h.service.PredictOffer(r.Context(), query, key)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOfferPredictionDTO(pred))
}

// Filters handles GET /api/v1/filters.
func (h *Handlers) Filters(w http.ResponseWriter, r *http.Request) {
	facets := h.service.Facets()
	h.writeJSON(w, http.StatusOK, FiltersResponse{
		States:     facets.States,
		Courses:    facets.Courses,
		Categories: facets.Categories,
		Quotas:     facets.Quotas,
	})
}

// Health handles GET /healthz. Dataset counts confirm the index actually
// loaded, not just that the process is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	offers, observations := h.service.DatasetSize()
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		Offers:       offers,
		Observations: observations,
	})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRank):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error("prediction request failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("response encode failed", slog.Any("error", err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return "invalid field " + first.Field() + ": failed " + first.Tag() + " validation"
	}
	return "invalid request"
}
