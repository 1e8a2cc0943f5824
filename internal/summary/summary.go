// Package summary projects a filtered view onto headline figures.
package summary

import (
	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Summary holds the headline figures of a view. An empty view yields the
// zero Summary.
type Summary struct {
	Count            int     `json:"count"`
	DistinctRegions  int     `json:"distinct_regions"`
	AvgLatencyMicros float64 `json:"avg_latency_us"`
	AnomalyCount     int     `json:"anomaly_count"`
}

// Project computes the summary of view.
func Project(view []record.Record, c anomaly.Classifier) Summary {
	if len(view) == 0 {
		return Summary{}
	}
	regions := make(map[string]struct{})
	var latency float64
	for _, r := range view {
		regions[r.Region] = struct{}{}
		latency += r.LatencyMicros
	}
	return Summary{
		Count:            len(view),
		DistinctRegions:  len(regions),
		AvgLatencyMicros: latency / float64(len(view)),
		AnomalyCount:     c.Count(view),
	}
}
