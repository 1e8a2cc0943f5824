// Package cli implements benchctl, a terminal front end to the dashboard
// views.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/dashboard"
	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/logging"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

// NewRootCmd builds the benchctl command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "benchctl",
		Short:        "Query network benchmark telemetry from the terminal.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "set debug logging level")
	flags.StringP("config", "c", "", "path to YAML config (defaults and environment only when empty)")
	flags.StringP("window", "w", "", "time window: 72h, 7d, 30d or all (default from config)")
	flags.StringSlice("region", nil, "only these regions (repeatable or comma separated)")
	flags.StringSlice("source", nil, "only these source zones")
	flags.StringSlice("destination", nil, "only these destination zones")
	flags.String("where", "", `extra predicate, e.g. 'latency_us > 2000 AND NOT intra_zone'`)

	rootCmd.AddCommand(
		newSummaryCmd(),
		newRegionsCmd(),
		newAnomaliesCmd(),
		newMatrixCmd(),
		newExportCmd(),
		newChartCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.New(w, "tint", level)
}

// session is a loaded dataset plus the criteria given on the command line.
type session struct {
	log      *slog.Logger
	state    *dashboard.State
	criteria filter.Criteria
}

func (s *session) snapshot() dashboard.Snapshot {
	return s.state.Snapshot(s.criteria)
}

// load reads the config, fetches one dataset and parses the filter flags.
func load(ctx context.Context, cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	cfgPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var sel filter.Selection
	if sel.Window, err = flags.GetString("window"); err != nil {
		return nil, fmt.Errorf("failed to get window flag: %w", err)
	}
	if sel.Regions, err = flags.GetStringSlice("region"); err != nil {
		return nil, fmt.Errorf("failed to get region flag: %w", err)
	}
	if sel.Sources, err = flags.GetStringSlice("source"); err != nil {
		return nil, fmt.Errorf("failed to get source flag: %w", err)
	}
	if sel.Destinations, err = flags.GetStringSlice("destination"); err != nil {
		return nil, fmt.Errorf("failed to get destination flag: %w", err)
	}
	if sel.Where, err = flags.GetString("where"); err != nil {
		return nil, fmt.Errorf("failed to get where flag: %w", err)
	}

	log := newLogger(cmd.ErrOrStderr(), verbose)

	loader, err := config.NewLoader(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	criteria, err := sel.Criteria(cfg.DefaultWindow())
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	src, err := source.New(ctx, cfg.Source, clock, log)
	if err != nil {
		return nil, err
	}
	state, err := dashboard.New(dashboard.Config{
		Source:        src,
		Clock:         clock,
		Logger:        log,
		Lookback:      cfg.Source.Lookback,
		MaxResults:    cfg.Source.MaxResults,
		Thresholds:    cfg.Anomaly,
		DefaultWindow: cfg.DefaultWindow(),
	})
	if err != nil {
		return nil, err
	}
	if err := state.Refresh(ctx); err != nil {
		return nil, err
	}
	if ds := state.Dataset(); ds.Warning != "" {
		log.Warn(ds.Warning)
	}
	log.Debug("dataset loaded", "records", len(state.Dataset().Records), "source", cfg.Source.Kind)
	return &session{log: log, state: state, criteria: criteria}, nil
}
