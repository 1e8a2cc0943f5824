package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
	"github.com/gyaneshwarpardhi/netbench/internal/dashboard"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func printSummary(w io.Writer, snap dashboard.Snapshot) {
	if snap.Warning != "" {
		fmt.Fprintln(w, "Warning:", snap.Warning)
	}
	fmt.Fprintln(w, "Window:", snap.Criteria.Window)
	fmt.Fprintln(w, "* latency in microseconds (µs)")

	table := newTable(w, []string{"Records", "Regions", "Avg Latency\n(µs)", "Anomalies"})
	table.Append([]string{
		strconv.Itoa(snap.Summary.Count),
		strconv.Itoa(snap.Summary.DistinctRegions),
		fmt.Sprintf("%.0f", snap.Summary.AvgLatencyMicros),
		strconv.Itoa(snap.Summary.AnomalyCount),
	})
	table.Render()
}

func printRegions(w io.Writer, stats []aggregate.RegionStat) {
	table := newTable(w, []string{"Region", "Name", "Samples", "Avg Latency\n(µs)", "Avg Bandwidth\n(Gb/s)"})
	for _, s := range stats {
		table.Append([]string{
			s.Region,
			s.DisplayName,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.0f", s.AvgLatencyMicros),
			fmt.Sprintf("%.2f", s.AvgBandwidthGbps),
		})
	}
	table.Render()
}

func printAnomalies(w io.Writer, report anomaly.Report) {
	table := newTable(w, []string{"Timestamp", "Region", "Path", "Latency\n(µs)", "Bandwidth\n(Gb/s)", "Severity"})
	for _, a := range report.Anomalies {
		ts := ""
		if a.Record.HasTimestamp() {
			ts = a.Record.Timestamp.Format("2006-01-02 15:04")
		}
		table.Append([]string{
			ts,
			regions.DisplayName(a.Record.Region),
			a.Record.PairLabel(),
			fmt.Sprintf("%.0f", a.Record.LatencyMicros),
			fmt.Sprintf("%.2f", a.Record.BandwidthGbps),
			a.Severity.String(),
		})
	}
	table.Render()
	fmt.Fprintf(w, "showing %d of %d anomalies\n", len(report.Anomalies), report.Total)
}

func printMatrix(w io.Writer, m aggregate.Matrix) {
	header := append([]string{"Source \\ Destination"}, m.Destinations...)
	table := newTable(w, header)
	for i, src := range m.Sources {
		row := []string{src}
		for _, cell := range m.Cells[i] {
			if cell == nil {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.0f (%d)", cell.AvgLatencyMicros, cell.Count))
		}
		table.Append(row)
	}
	table.Render()
}
