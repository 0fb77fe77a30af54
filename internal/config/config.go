// Package config provides configuration management for northstar.
package config

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const (
	// DefaultServicePort is the default HTTP port for the advisor service.
	DefaultServicePort = 38111

	// DefaultPrimaryModel is the generation model used for recommendation
	// drafts, action plans, and top-pick ranking.
	DefaultPrimaryModel = "sonnet"

	// DefaultCheapModel is the cheap tier used for the critique waves.
	DefaultCheapModel = "haiku"
)

// Scoring and pipeline defaults. A candidate survives parsing only when its
// adjusted score clears MinScoreThreshold and no identical content hash
// exists inside the dedup window.
const (
	// DefaultMinScoreThreshold is the adjusted score a candidate must reach
	// to be persisted.
	DefaultMinScoreThreshold = 6.0

	// DefaultPredictionThreshold is the score at which a saved
	// recommendation spawns a prediction (and an action plan, if requested).
	DefaultPredictionThreshold = 7.0

	// DefaultDedupWindowDays is the trailing window within which
	// identical-content recommendations are suppressed.
	DefaultDedupWindowDays = 30

	// DefaultFeedbackWindowDays is the trailing window of feedback events
	// feeding the engagement boost.
	DefaultFeedbackWindowDays = 30

	// MinBoostSamples is the minimum number of feedback events (or resolved
	// predictions) per category before a boost applies.
	MinBoostSamples = 10

	// MaxEngagementBoost bounds the engagement-derived score adjustment.
	MaxEngagementBoost = 1.5

	// MaxOutcomeBoost bounds the prediction-outcome-derived adjustment.
	MaxOutcomeBoost = 0.5
)

// Config holds the application configuration.
type Config struct {
	// Service settings
	ServicePort int `json:"service_port"`

	// Database settings
	DBPath   string `json:"db_path"`
	MaxConns int    `json:"max_conns"`

	// Generation settings
	PrimaryModel string `json:"primary_model"`
	CheapModel   string `json:"cheap_model"`

	// Pipeline settings
	MinScoreThreshold   float64 `json:"min_score_threshold"`
	PredictionThreshold float64 `json:"prediction_threshold"`
	DedupWindowDays     int     `json:"dedup_window_days"`
	FeedbackWindowDays  int     `json:"feedback_window_days"`
	MaxItemsPerCategory int     `json:"max_items_per_category"`
}

// DataDir returns the data directory path (~/.northstar).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".northstar")
}

// DBPath returns the database file path.
func DBPath() string {
	return filepath.Join(DataDir(), "northstar.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ServicePort:         DefaultServicePort,
		DBPath:              DBPath(),
		MaxConns:            4,
		PrimaryModel:        DefaultPrimaryModel,
		CheapModel:          DefaultCheapModel,
		MinScoreThreshold:   DefaultMinScoreThreshold,
		PredictionThreshold: DefaultPredictionThreshold,
		DedupWindowDays:     DefaultDedupWindowDays,
		FeedbackWindowDays:  DefaultFeedbackWindowDays,
		MaxItemsPerCategory: 5,
	}
}

// Load loads configuration from the settings file, merging with defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Load settings into a map to preserve unknown fields
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return cfg, nil // Return defaults on parse error
	}

	if v, ok := settings["NORTHSTAR_SERVICE_PORT"].(float64); ok && v > 0 {
		cfg.ServicePort = int(v)
	}
	if v, ok := settings["NORTHSTAR_DB_PATH"].(string); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := settings["NORTHSTAR_MAX_CONNS"].(float64); ok && v > 0 {
		cfg.MaxConns = int(v)
	}
	if v, ok := settings["NORTHSTAR_PRIMARY_MODEL"].(string); ok && v != "" {
		cfg.PrimaryModel = v
	}
	if v, ok := settings["NORTHSTAR_CHEAP_MODEL"].(string); ok && v != "" {
		cfg.CheapModel = v
	}
	if v, ok := settings["NORTHSTAR_MIN_SCORE_THRESHOLD"].(float64); ok && v >= 0 && v <= 10 {
		cfg.MinScoreThreshold = v
	}
	if v, ok := settings["NORTHSTAR_PREDICTION_THRESHOLD"].(float64); ok && v >= 0 && v <= 10 {
		cfg.PredictionThreshold = v
	}
	if v, ok := settings["NORTHSTAR_DEDUP_WINDOW_DAYS"].(float64); ok && v > 0 {
		cfg.DedupWindowDays = int(v)
	}
	if v, ok := settings["NORTHSTAR_FEEDBACK_WINDOW_DAYS"].(float64); ok && v > 0 {
		cfg.FeedbackWindowDays = int(v)
	}
	if v, ok := settings["NORTHSTAR_MAX_ITEMS_PER_CATEGORY"].(float64); ok && v > 0 {
		cfg.MaxItemsPerCategory = int(v)
	}

	// Environment overrides the settings file
	if v := os.Getenv("NORTHSTAR_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("NORTHSTAR_PRIMARY_MODEL"); v != "" {
		cfg.PrimaryModel = v
	}
	if v := os.Getenv("NORTHSTAR_CHEAP_MODEL"); v != "" {
		cfg.CheapModel = v
	}

	return cfg, nil
}
