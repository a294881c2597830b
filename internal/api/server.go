package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/admitstack/admit-engine/internal/models"
)

// PredictionService is the application surface the HTTP layer depends on.
type PredictionService interface {
	Predict(ctx context.Context, query models.CandidateQuery) (*models.PredictionSet, error)
	PredictOffer(ctx context.Context, query models.CandidateQuery, key models.OfferKey) (models.OfferPrediction, error)
	Facets() models.Facets
	DatasetSize() (offers, observations int)
}

// ServerOptions carries listener tunables.
type ServerOptions struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the JSON HTTP front of the engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires routes and middleware into a ready-to-start server.
func NewServer(opts ServerOptions, service PredictionService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	handlers := NewHandlers(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/predictions", handlers.Predict)
	mux.HandleFunc("POST /api/v1/predictions/offer", handlers.PredictOffer)
	mux.HandleFunc("GET /api/v1/filters", handlers.Filters)
	mux.HandleFunc("GET /healthz", handlers.Health)

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Address,
			Handler:      requestLogging(logger, mux),
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewMetricsServer exposes the Prometheus registry on its own listener so
// scrapes never contend with candidate traffic.
func NewMetricsServer(address string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogging tags every request with an ID and logs its outcome.
func requestLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("http request",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}
