package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the admission engine.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Scoring ScoringConfig `yaml:"scoring"`
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DataConfig points the loader at the historical closing-rank dataset.
// Source is "file" for a local long-format CSV, or "http" to pull the rows
// from a dataset service at startup.
type DataConfig struct {
	Source      string        `yaml:"source"`
	Path        string        `yaml:"path"`
	BaseURL     string        `yaml:"baseURL"`
	DatasetPath string        `yaml:"datasetPath"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxResults  int           `yaml:"maxResults"`
	MaxRank     int           `yaml:"maxRank"`
}

// ScoringConfig controls recommendation weighting. Path optionally points at
// a YAML weight profile overriding the built-in defaults.
type ScoringConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls caching of prediction responses. Backend is "valkey"
// for a Valkey/Redis-compatible server or "memory" for the in-process cache.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Backend        string        `yaml:"backend"`
	Addr           string        `yaml:"addr"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dialTimeout"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	MaxRetries     int           `yaml:"maxRetries"`
	TLS            bool          `yaml:"tls"`
	PredictionsTTL time.Duration `yaml:"predictionsTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ADMIT_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    15 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			Source:      "file",
			Path:        "data/closing_ranks.csv",
			DatasetPath: "/api/v1/datasets/closing-ranks",
			Timeout:     10 * time.Second,
			MaxResults:  50,
			MaxRank:     1250000,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:        false,
			Backend:        "memory",
			DialTimeout:    2 * time.Second,
			ReadTimeout:    500 * time.Millisecond,
			WriteTimeout:   500 * time.Millisecond,
			MaxRetries:     2,
			PredictionsTTL: 5 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADMIT_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("ADMIT_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_BASE_URL"); v != "" {
		cfg.Data.BaseURL = v
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_DATASET_PATH"); v != "" {
		cfg.Data.DatasetPath = v
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Data.MaxResults = n
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_DATA_MAX_RANK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Data.MaxRank = n
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_SCORING_PATH"); v != "" {
		cfg.Scoring.Path = v
	}
	if v := os.Getenv("ADMIT_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ADMIT_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("ADMIT_ENGINE_CACHE_PREDICTIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.PredictionsTTL = d
		}
	}
}
