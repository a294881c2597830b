package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/admitstack/admit-engine/internal/api"
	"github.com/admitstack/admit-engine/internal/cache"
	"github.com/admitstack/admit-engine/internal/config"
	"github.com/admitstack/admit-engine/internal/engine"
	"github.com/admitstack/admit-engine/internal/metrics"
	"github.com/admitstack/admit-engine/internal/repo"
	"github.com/admitstack/admit-engine/internal/services"
	"github.com/admitstack/admit-engine/internal/trends"
	"github.com/admitstack/admit-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting admit-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	rows, report, err := loadDataset(cfg, logger)
	if err != nil {
		logger.Error("failed to load dataset", slog.Any("error", err))
		os.Exit(1)
	}
	index := repo.NewHistoricalRankIndex(rows)
	metrics.SetDatasetSize(index.Offers(), index.Observations())
	logger.Info("dataset loaded",
		slog.Int("accepted", report.Accepted),
		slog.Int("skipped", report.Skipped),
		slog.Int("offers", index.Offers()))

	weights, err := engine.LoadWeights(cfg.Scoring.Path)
	if err != nil {
		logger.Error("failed to load scoring weights", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "valkey":
			provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
				Addr:         cfg.Cache.Addr,
				Username:     cfg.Cache.Username,
				Password:     cfg.Cache.Password,
				DB:           cfg.Cache.DB,
				DialTimeout:  cfg.Cache.DialTimeout,
				ReadTimeout:  cfg.Cache.ReadTimeout,
				WriteTimeout: cfg.Cache.WriteTimeout,
				MaxRetries:   cfg.Cache.MaxRetries,
				TLS:          cfg.Cache.TLS,
			})
			if err != nil {
				logger.Warn("valkey cache unavailable, continuing without", slog.Any("error", err))
			} else {
				cacheProvider = provider
			}
		default:
			cacheProvider = cache.NewMemoryProvider()
		}
	}
	defer cacheProvider.Close()

	pipeline := engine.NewPipeline(index, weights, trends.NewAnalyzer(logger), engine.PipelineConfig{
		MaxRank:    cfg.Data.MaxRank,
		MaxResults: cfg.Data.MaxResults,
	}, logger)

	service := services.NewPredictionService(logger, pipeline, index, cacheProvider, cfg.Cache.PredictionsTTL, cfg.Data.MaxRank)

	server := api.NewServer(api.ServerOptions{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		metricsServer = api.NewMetricsServer(cfg.Server.MetricsAddress, prometheus.DefaultGatherer)
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("admit-engine stopped")
}

func loadDataset(cfg *config.Config, logger *slog.Logger) ([]repo.DatasetRow, repo.LoadReport, error) {
	switch cfg.Data.Source {
	case "http":
		client := repo.NewRemoteDatasetClient(cfg.Data.BaseURL, cfg.Data.DatasetPath, cfg.Data.Timeout)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.Timeout)
		defer cancel()
		return client.FetchDataset(ctx)
	default:
		logger.Debug("loading dataset from file", slog.String("path", cfg.Data.Path))
		return repo.LoadCSV(cfg.Data.Path)
	}
}
