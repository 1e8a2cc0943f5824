package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
	"github.com/gyaneshwarpardhi/netbench/internal/export"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
	"github.com/gyaneshwarpardhi/netbench/internal/render"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print headline numbers for the filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s.snapshot())
			return nil
		},
	}
}

func newRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Print per-region latency and bandwidth averages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sortStr, err := cmd.Flags().GetString("sort")
			if err != nil {
				return fmt.Errorf("failed to get sort flag: %w", err)
			}
			order, err := aggregate.ParseSortOrder(sortStr)
			if err != nil {
				return err
			}
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			printRegions(cmd.OutOrStdout(), aggregate.RegionStats(s.state.View(s.criteria), regions.DisplayName, order))
			return nil
		},
	}
	cmd.Flags().String("sort", string(aggregate.SortAlphabetical), "sort order: alphabetical, asc or desc")
	return cmd
}

func newAnomaliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "Print the most recent latency anomalies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			printAnomalies(cmd.OutOrStdout(), s.state.Classifier().Detect(s.state.View(s.criteria)))
			return nil
		},
	}
}

func newMatrixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Print mean latency for every source and destination zone pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			printMatrix(cmd.OutOrStdout(), aggregate.PairMatrix(s.state.View(s.criteria)))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = export.FileName(s.state.Now())
			}
			view := s.state.View(s.criteria)
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, view); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write CSV file: %w", err)
			}
			s.log.Info("exported records", "path", output, "records", len(view))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output path (default network-benchmark-YYYY-MM-DD.csv)")
	return cmd
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "chart NAME",
		Short:     "Render region-latency, region-series or pair-series as PNG",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"region-latency", "region-series", "pair-series"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			name := args[0]
			if output == "" {
				output = name + ".png"
			}
			s, err := load(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			view := s.state.View(s.criteria)
			g := aggregate.GranularityFor(s.criteria.Window)
			var buf bytes.Buffer
			switch name {
			case "region-latency":
				err = render.RegionLatencyBars(&buf, aggregate.RegionStats(view, regions.DisplayName, aggregate.SortAlphabetical))
			case "region-series":
				err = render.SeriesChart(&buf, "Latency by Region (μs)", g, aggregate.RegionSeries(view, g, regions.DisplayName))
			case "pair-series":
				err = render.SeriesChart(&buf, "Latency by Zone Pair (μs)", g, aggregate.PairSeries(view, g))
			default:
				return fmt.Errorf("unknown chart %q", name)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write chart: %w", err)
			}
			s.log.Info("chart written", "path", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output path (default NAME.png)")
	return cmd
}
