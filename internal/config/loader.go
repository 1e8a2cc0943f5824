package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
)

// Loader reads a YAML config file and watches it for changes. An empty path
// yields the defaults plus environment overrides.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file path.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	if l.path == "" {
		return nil, fmt.Errorf("config watcher: no config file")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file. A file that fails
// Validate leaves the current config and callbacks untouched.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	var cfg Config
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "synthetic"
	}
	if cfg.Source.Lookback == 0 {
		cfg.Source.Lookback = 30 * 24 * time.Hour
	}
	if cfg.Source.MaxResults == 0 {
		cfg.Source.MaxResults = 200000
	}
	if cfg.Source.HTTP.Timeout == 0 {
		cfg.Source.HTTP.Timeout = 30 * time.Second
	}
	if cfg.Source.HTTP.MaxRetries == 0 {
		cfg.Source.HTTP.MaxRetries = 3
	}
	if cfg.Source.DynamoDB.Table == "" {
		cfg.Source.DynamoDB.Table = "perf"
	}
	if cfg.Source.ClickHouse.Table == "" {
		cfg.Source.ClickHouse.Table = "perf"
	}
	if cfg.Source.ClickHouse.Database == "" {
		cfg.Source.ClickHouse.Database = "default"
	}
	if cfg.Refresh.Interval == 0 {
		cfg.Refresh.Interval = 5 * time.Minute
	}
	if cfg.Filters.DefaultWindow == "" {
		cfg.Filters.DefaultWindow = "7d"
	}
	def := anomaly.DefaultThresholds()
	if cfg.Anomaly.IntraZoneMicros == 0 {
		cfg.Anomaly.IntraZoneMicros = def.IntraZoneMicros
	}
	if cfg.Anomaly.InterZoneMicros == 0 {
		cfg.Anomaly.InterZoneMicros = def.InterZoneMicros
	}
	if cfg.Anomaly.CriticalMicros == 0 {
		cfg.Anomaly.CriticalMicros = def.CriticalMicros
	}
	if cfg.Anomaly.Limit == 0 {
		cfg.Anomaly.Limit = def.Limit
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 5000
	}
	if cfg.Ingest.QueueDepth == 0 {
		cfg.Ingest.QueueDepth = 64
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "NETBENCH_ADDR")
	setString(&cfg.Source.Kind, "NETBENCH_SOURCE")
	setString(&cfg.Source.HTTP.URL, "NETBENCH_SOURCE_URL")
	setString(&cfg.Source.DynamoDB.Table, "NETBENCH_DYNAMODB_TABLE")
	setString(&cfg.Source.DynamoDB.Region, "AWS_REGION")
	setString(&cfg.Source.ClickHouse.Addr, "NETBENCH_CLICKHOUSE_ADDR")
	setString(&cfg.Source.ClickHouse.Username, "NETBENCH_CLICKHOUSE_USERNAME")
	setString(&cfg.Source.ClickHouse.Password, "NETBENCH_CLICKHOUSE_PASSWORD")
	setString(&cfg.Source.File.Path, "NETBENCH_SOURCE_FILE")
	setString(&cfg.Logging.Level, "NETBENCH_LOG_LEVEL")
	setString(&cfg.Logging.Format, "NETBENCH_LOG_FORMAT")
	if v := os.Getenv("NETBENCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Source.MaxResults = n
		}
	}
	if v := os.Getenv("NETBENCH_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Refresh.Interval = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
