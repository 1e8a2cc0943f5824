package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestRegionLatencyBars(t *testing.T) {
	tests := []struct {
		name  string
		stats []aggregate.RegionStat
	}{
		{
			name: "several regions",
			stats: []aggregate.RegionStat{
				{Region: "eastasia", DisplayName: "East Asia", Count: 3, AvgLatencyMicros: 220},
				{Region: "westeurope", DisplayName: "West Europe", Count: 5, AvgLatencyMicros: 140},
			},
		},
		{
			name:  "all zero",
			stats: []aggregate.RegionStat{{Region: "unknown", DisplayName: "Unknown Region", Count: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RegionLatencyBars(&buf, tt.stats); err != nil {
				t.Fatalf("RegionLatencyBars: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestSeriesChart(t *testing.T) {
	base := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		g      aggregate.Granularity
		series []aggregate.Series
	}{
		{
			name: "daily lines",
			g:    aggregate.Daily,
			series: []aggregate.Series{
				{Key: "westeurope", Label: "West Europe", Points: []aggregate.Point{
					{Time: base.AddDate(0, 0, -2), Value: 120},
					{Time: base.AddDate(0, 0, -1), Value: 180},
				}},
				{Key: "eastasia", Label: "East Asia", Points: []aggregate.Point{
					{Time: base.AddDate(0, 0, -1), Value: 90},
				}},
			},
		},
		{
			name: "single flat point",
			g:    aggregate.Hourly,
			series: []aggregate.Series{
				{Key: "az1|az2", Label: "az1 → az2", Points: []aggregate.Point{{Time: base, Value: 50}}},
				{Key: "az2|az3", Label: "az2 → az3"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := SeriesChart(&buf, "Latency", tt.g, tt.series); err != nil {
				t.Fatalf("SeriesChart: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := RegionLatencyBars(&buf, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("RegionLatencyBars(nil) = %v, want ErrNoData", err)
	}
	err := SeriesChart(&buf, "Latency", aggregate.Daily, []aggregate.Series{{Key: "empty"}})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("SeriesChart(empty) = %v, want ErrNoData", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for empty input", buf.Len())
	}
}
