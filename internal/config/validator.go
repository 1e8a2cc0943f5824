package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/netbench/internal/filter"
)

var sourceKinds = map[string]bool{
	"http":       true,
	"dynamodb":   true,
	"clickhouse": true,
	"file":       true,
	"synthetic":  true,
}

// ErrInvalid wraps every error returned by Validate.
var ErrInvalid = errors.New("config validation errors")

var logFormats = map[string]bool{"text": true, "json": true, "tint": true}

// Validate checks the config for:
//   - A known source kind with the settings that kind requires
//   - Positive limits, intervals and anomaly thresholds
//   - A parsable default filter window
func Validate(cfg *Config) error {
	var errs []string

	if !sourceKinds[cfg.Source.Kind] {
		errs = append(errs, fmt.Sprintf("source.kind: unknown kind %q", cfg.Source.Kind))
	}
	switch cfg.Source.Kind {
	case "http":
		if cfg.Source.HTTP.URL == "" {
			errs = append(errs, "source.http.url is required for kind http")
		}
	case "dynamodb":
		if cfg.Source.DynamoDB.Region == "" {
			errs = append(errs, "source.dynamodb.region is required for kind dynamodb")
		}
	case "clickhouse":
		if cfg.Source.ClickHouse.Addr == "" {
			errs = append(errs, "source.clickhouse.addr is required for kind clickhouse")
		}
	case "file":
		if cfg.Source.File.Path == "" {
			errs = append(errs, "source.file.path is required for kind file")
		}
	}
	if cfg.Source.MaxResults < 0 {
		errs = append(errs, "source.max_results must not be negative")
	}
	if cfg.Source.Lookback < 0 {
		errs = append(errs, "source.lookback must not be negative")
	}
	if cfg.Source.CacheTTL < 0 {
		errs = append(errs, "source.cache_ttl must not be negative")
	}
	if cfg.Refresh.Interval <= 0 {
		errs = append(errs, "refresh.interval must be positive")
	}
	if _, err := filter.ParseWindow(cfg.Filters.DefaultWindow); err != nil {
		errs = append(errs, fmt.Sprintf("filters.default_window: %s", err))
	}
	if err := cfg.Anomaly.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Ingest.Workers <= 0 || cfg.Ingest.ChunkSize <= 0 || cfg.Ingest.QueueDepth <= 0 {
		errs = append(errs, "ingest.workers, ingest.chunk_size and ingest.queue_depth must be positive")
	}
	if !logFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format: unknown format %q", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}

// DefaultWindow returns the parsed default filter window, falling back to
// filter.DefaultWindow when the configured value is invalid.
func (c *Config) DefaultWindow() filter.Window {
	w, err := filter.ParseWindow(c.Filters.DefaultWindow)
	if err != nil {
		return filter.DefaultWindow
	}
	return w
}
