package config

import (
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
)

// Config is the top-level YAML structure.
type Config struct {
	Server  ServerConf         `yaml:"server"`
	Source  SourceConf         `yaml:"source"`
	Refresh RefreshConf        `yaml:"refresh"`
	Filters FiltersConf        `yaml:"filters"`
	Anomaly anomaly.Thresholds `yaml:"anomaly"`
	Ingest  IngestConf         `yaml:"ingest"`
	Logging LoggingConf        `yaml:"logging"`
}

// ServerConf configures the HTTP listener.
type ServerConf struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SourceConf selects and configures where benchmark records come from.
type SourceConf struct {
	Kind       string         `yaml:"kind"` // http | dynamodb | clickhouse | file | synthetic
	Lookback   time.Duration  `yaml:"lookback"`
	MaxResults int            `yaml:"max_results"`
	CacheTTL   time.Duration  `yaml:"cache_ttl"` // 0 disables caching
	HTTP       HTTPSourceConf `yaml:"http"`
	DynamoDB   DynamoDBConf   `yaml:"dynamodb"`
	ClickHouse ClickHouseConf `yaml:"clickhouse"`
	File       FileSourceConf `yaml:"file"`
}

type HTTPSourceConf struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint          `yaml:"max_retries"`
}

type DynamoDBConf struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // optional, for local DynamoDB
}

type ClickHouseConf struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
	Secure   bool   `yaml:"secure"`
}

type FileSourceConf struct {
	Path string `yaml:"path"`
}

// RefreshConf controls the periodic reload of the record set.
type RefreshConf struct {
	Enabled  *bool         `yaml:"enabled"` // nil means enabled
	Interval time.Duration `yaml:"interval"`
}

// IsEnabled reports whether periodic refresh is on.
func (r RefreshConf) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// FiltersConf holds filter defaults.
type FiltersConf struct {
	DefaultWindow string `yaml:"default_window"`
}

// IngestConf holds tunable normalization concurrency.
type IngestConf struct {
	Workers    int `yaml:"workers"`
	ChunkSize  int `yaml:"chunk_size"`
	QueueDepth int `yaml:"queue_depth"`
}

// LoggingConf selects the log handler.
type LoggingConf struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json | tint
}
