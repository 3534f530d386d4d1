// Package config loads run settings from defaults, a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables, applied over the file
const (
	EnvData      = "MVPA_DATA"
	EnvResult    = "MVPA_RESULT"
	EnvCacheDir  = "MVPA_CACHE_DIR"
	EnvWorkers   = "MVPA_WORKERS"
	EnvVerbose   = "MVPA_VERBOSE"
	EnvThreshold = "MVPA_THRESHOLD"
	EnvScoring   = "MVPA_FEATURE_SCORING"
)

// DotEnv is read from the working directory when present
const DotEnv = ".env"

// ErrInvalid is returned for settings out of range
var ErrInvalid = errors.New("config: invalid setting")

// Config holds every run setting
type Config struct {
	// DataDir is where patterns are read from
	DataDir string `yaml:"data_dir"`
	// ResultDir receives the results
	ResultDir string `yaml:"result_dir"`
	// CacheDir overrides where masks converted to functional space are kept
	CacheDir string `yaml:"cache_dir"`

	Workers   int     `yaml:"workers"`
	Verbose   bool    `yaml:"verbose"`
	Threshold float64 `yaml:"threshold"`
	Scoring   string  `yaml:"feature_scoring"`
	TStat     bool    `yaml:"tstat"`
}

// Default returns the settings used when nothing else is given
func Default() Config {
	return Config{
		DataDir:   ".",
		ResultDir: "results",
		Workers:   0,
		Threshold: 0,
		Scoring:   string(model.ScoringCoef),
		TStat:     true,
	}
}

// Load merges, by increasing priority, the defaults, the YAML file at path
// (skipped when empty or missing), a .env file and the MVPA_* environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// variables already set win over .env
	if err := godotenv.Load(DotEnv); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("load %s: %w", DotEnv, err)
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv(EnvData); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvResult); v != "" {
		cfg.ResultDir = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv(EnvScoring); v != "" {
		cfg.Scoring = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvWorkers, v, ErrInvalid)
		}
		cfg.Workers = i
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvVerbose, v, ErrInvalid)
		}
		cfg.Verbose = b
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvThreshold, v, ErrInvalid)
		}
		cfg.Threshold = f
	}

	return nil
}

// Validate checks the merged settings
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalid)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold %v: %w", c.Threshold, ErrInvalid)
	}
	if _, err := model.ParseScoring(c.Scoring); err != nil {
		return fmt.Errorf("feature scoring: %w", ErrInvalid)
	}

	return nil
}
