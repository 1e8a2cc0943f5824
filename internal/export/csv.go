// Package export writes filtered views as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

var csvHeader = []string{"Timestamp", "Region", "Source", "Destination", "Bandwidth (Gb/s)", "Latency (μs)"}

// WriteCSV writes view to w in input order. Records without a valid
// timestamp get an empty Timestamp column.
func WriteCSV(w io.Writer, view []record.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range view {
		if err := writer.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func row(r record.Record) []string {
	ts := ""
	if r.HasTimestamp() {
		ts = r.Timestamp.UTC().Format(time.RFC3339)
	}
	return []string{
		ts,
		r.Region,
		r.Source,
		r.Destination,
		strconv.FormatFloat(r.BandwidthGbps, 'f', 2, 64),
		strconv.FormatFloat(math.Round(r.LatencyMicros), 'f', 0, 64),
	}
}

// FileName is the download name for an export taken at now.
func FileName(now time.Time) string {
	return "network-benchmark-" + now.UTC().Format("2006-01-02") + ".csv"
}
