// Package dashboard owns the loaded dataset and the active view settings,
// and recomputes dashboard snapshots from them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/ingest"
	"github.com/gyaneshwarpardhi/netbench/internal/metrics"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

// ErrRefreshInProgress is returned when a refresh is triggered while another
// one is still running.
var ErrRefreshInProgress = errors.New("dashboard: refresh already in progress")

// Dataset is one loaded generation of canonical records. It is never
// modified after it has been published.
type Dataset struct {
	Records  []record.Record
	Options  filter.Options
	LoadedAt time.Time
	// Fallback is set when Records came from the fallback source.
	Fallback bool
	Warning  string
}

type Config struct {
	Source source.Source
	// Fallback is used when Source fails or returns nothing. Defaults to a
	// synthetic generator.
	Fallback   source.Source
	Normalizer *ingest.Normalizer
	Clock      clockwork.Clock
	Logger     *slog.Logger

	Lookback      time.Duration
	MaxResults    int
	Thresholds    anomaly.Thresholds
	DefaultWindow filter.Window
}

func (c *Config) Validate() error {
	if c.Source == nil {
		return errors.New("source is required")
	}
	if c.Lookback < 0 {
		return errors.New("lookback must not be negative")
	}
	if c.MaxResults < 0 {
		return errors.New("max results must not be negative")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Fallback == nil {
		c.Fallback = source.NewSynthetic(c.Clock, c.Clock.Now().UnixNano())
	}
	if c.Thresholds == (anomaly.Thresholds{}) {
		c.Thresholds = anomaly.DefaultThresholds()
	}
	return c.Thresholds.Validate()
}

// State is the dashboard context: the current dataset plus the active
// criteria and anomaly thresholds. All methods are safe for concurrent use.
type State struct {
	cfg Config
	log *slog.Logger

	dataset    atomic.Pointer[Dataset]
	refreshing atomic.Bool

	mu            sync.RWMutex
	criteria      filter.Criteria
	defaultWindow filter.Window
	classifier    anomaly.Classifier
}

func New(cfg Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dashboard config: %w", err)
	}
	s := &State{
		cfg:           cfg,
		log:           cfg.Logger,
		defaultWindow: cfg.DefaultWindow,
		classifier:    anomaly.New(cfg.Thresholds),
	}
	s.criteria = filter.Criteria{Window: cfg.DefaultWindow}
	return s, nil
}

// Refresh fetches, normalizes and publishes a new dataset. If the source
// fails or returns no records the fallback dataset is published instead and
// the returned error is nil; Dataset.Warning describes what happened.
func (s *State) Refresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		metrics.RefreshRuns.WithLabelValues("rejected").Inc()
		return ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)
	return s.refresh(ctx)
}

// RefreshAsync starts a refresh in the background. It fails with
// ErrRefreshInProgress instead of starting a second one. The returned channel
// receives the result of the refresh.
func (s *State) RefreshAsync(ctx context.Context) (<-chan error, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		metrics.RefreshRuns.WithLabelValues("rejected").Inc()
		return nil, ErrRefreshInProgress
	}
	done := make(chan error, 1)
	go func() {
		defer s.refreshing.Store(false)
		err := s.refresh(ctx)
		if err != nil {
			s.log.Error("dashboard: background refresh failed", "error", err)
		}
		done <- err
	}()
	return done, nil
}

func (s *State) refresh(ctx context.Context) error {
	start := s.cfg.Clock.Now()
	defer func() {
		metrics.RefreshDuration.Observe(s.cfg.Clock.Since(start).Seconds())
	}()

	q := source.Query{Limit: s.cfg.MaxResults}
	if s.cfg.Lookback > 0 {
		q.Since = start.Add(-s.cfg.Lookback)
	}

	raws, err := s.cfg.Source.Fetch(ctx, q)
	var warning string
	switch {
	case err != nil:
		if ctx.Err() != nil {
			metrics.RefreshRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("refresh: %w", ctx.Err())
		}
		warning = fmt.Sprintf("data source unavailable, showing sample data: %v", err)
	case len(raws) == 0:
		warning = "data source returned no records, showing sample data"
	}
	if warning != "" {
		s.log.Warn("dashboard: falling back to sample data", "reason", warning)
		raws, err = s.cfg.Fallback.Fetch(ctx, q)
		if err != nil {
			metrics.RefreshRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("fallback source: %w", err)
		}
	}

	records, err := s.normalize(ctx, raws)
	if err != nil {
		metrics.RefreshRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("normalize: %w", err)
	}

	s.dataset.Store(&Dataset{
		Records:  records,
		Options:  filter.AvailableOptions(records),
		LoadedAt: start,
		Fallback: warning != "",
		Warning:  warning,
	})
	metrics.RecordsLoaded.Set(float64(len(records)))
	status := "ok"
	if warning != "" {
		status = "fallback"
	}
	metrics.RefreshRuns.WithLabelValues(status).Inc()
	s.log.Info("dashboard: dataset refreshed", "records", len(records), "fallback", warning != "",
		"duration", s.cfg.Clock.Since(start))
	return nil
}

func (s *State) normalize(ctx context.Context, raws []record.Raw) ([]record.Record, error) {
	if s.cfg.Normalizer == nil {
		metrics.RecordsNormalized.Add(float64(len(raws)))
		return record.NormalizeAll(raws), nil
	}
	return s.cfg.Normalizer.Normalize(ctx, raws)
}

// Dataset returns the current dataset, or nil before the first refresh.
func (s *State) Dataset() *Dataset {
	return s.dataset.Load()
}

// Now is the state's clock reading.
func (s *State) Now() time.Time {
	return s.cfg.Clock.Now()
}

// Ready reports whether a dataset has been loaded.
func (s *State) Ready() bool {
	return s.dataset.Load() != nil
}

// Refreshing reports whether a refresh is running.
func (s *State) Refreshing() bool {
	return s.refreshing.Load()
}

func (s *State) Criteria() filter.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

func (s *State) SetCriteria(c filter.Criteria) {
	s.mu.Lock()
	s.criteria = c
	s.mu.Unlock()
}

// ResetCriteria clears every selection and restores the default window.
func (s *State) ResetCriteria() filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = filter.Criteria{Window: s.defaultWindow}
	return s.criteria
}

func (s *State) DefaultWindow() filter.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultWindow
}

// SetDefaultWindow changes the window used by ResetCriteria and by requests
// that do not name one. The active criteria are left alone.
func (s *State) SetDefaultWindow(w filter.Window) {
	s.mu.Lock()
	s.defaultWindow = w
	s.mu.Unlock()
}

func (s *State) Thresholds() anomaly.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier.Thresholds()
}

func (s *State) SetThresholds(t anomaly.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.classifier = anomaly.New(t)
	s.mu.Unlock()
	return nil
}

// Classifier returns the anomaly classifier for the current thresholds.
func (s *State) Classifier() anomaly.Classifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier
}

// ApplyConfig adopts the thresholds and default window of a reloaded config.
func (s *State) ApplyConfig(cfg *config.Config) error {
	if err := s.SetThresholds(cfg.Anomaly); err != nil {
		return err
	}
	s.SetDefaultWindow(cfg.DefaultWindow())
	return nil
}
