package config

import (
	"time"

	"filing-tracker/pkg/config"
)

// Scraper holds configuration for the filing content retriever.
type Scraper struct {
	NewsFeedBaseURL     string        `mapstructure:"news_feed_base_url"`
	MaxCandidates       int           `mapstructure:"max_candidates"`
	SearchTimeout       time.Duration `mapstructure:"search_timeout"`
	ExtractTimeout      time.Duration `mapstructure:"extract_timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

// Tracker holds configuration for the filing lifecycle scan.
type Tracker struct {
	ScanSchedule string        `mapstructure:"scan_schedule"`
	ScanTimeout  time.Duration `mapstructure:"scan_timeout"`
}

// Config holds the full configuration for the tracker service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Telegram config.Telegram `mapstructure:"telegram"`
	Scraper  Scraper         `mapstructure:"scraper"`
	Tracker  Tracker         `mapstructure:"tracker"`
}

// Load loads the tracker configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
