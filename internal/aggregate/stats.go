// Package aggregate computes per-key means and time-bucketed series over a
// filtered view of benchmark records. Every function is pure and produces
// deterministic ordering for identical input.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
)

// RegionStat is the mean latency and bandwidth observed in one region.
type RegionStat struct {
	Region           string  `json:"region"`
	DisplayName      string  `json:"display_name"`
	Count            int     `json:"count"`
	AvgLatencyMicros float64 `json:"avg_latency_us"`
	AvgBandwidthGbps float64 `json:"avg_bandwidth_gbps"`
}

// SortOrder orders region statistics.
type SortOrder string

const (
	SortAlphabetical SortOrder = "alphabetical"
	SortLatencyAsc   SortOrder = "asc"
	SortLatencyDesc  SortOrder = "desc"
)

// ParseSortOrder accepts "alphabetical", "asc" or "desc"; empty means
// alphabetical.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortAlphabetical:
		return SortAlphabetical, nil
	case SortLatencyAsc, SortLatencyDesc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("aggregate: unknown sort order %q", s)
}

type sums struct {
	count     int
	latency   float64
	bandwidth float64
}

func (s *sums) add(r record.Record) {
	s.count++
	s.latency += r.LatencyMicros
	s.bandwidth += r.BandwidthGbps
}

// RegionStats groups view by region. Only regions present in view appear;
// the counts always sum to len(view).
func RegionStats(view []record.Record, name regions.Namer, order SortOrder) []RegionStat {
	if name == nil {
		name = regions.DisplayName
	}
	groups := make(map[string]*sums)
	for _, r := range view {
		g, ok := groups[r.Region]
		if !ok {
			g = &sums{}
			groups[r.Region] = g
		}
		g.add(r)
	}

	out := make([]RegionStat, 0, len(groups))
	for region, g := range groups {
		out = append(out, RegionStat{
			Region:           region,
			DisplayName:      name(region),
			Count:            g.count,
			AvgLatencyMicros: g.latency / float64(g.count),
			AvgBandwidthGbps: g.bandwidth / float64(g.count),
		})
	}
	SortRegionStats(out, order)
	return out
}

// SortRegionStats orders stats in place. Ties fall back to display name and
// then region code.
func SortRegionStats(stats []RegionStat, order SortOrder) {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		switch order {
		case SortLatencyAsc:
			if a.AvgLatencyMicros != b.AvgLatencyMicros {
				return a.AvgLatencyMicros < b.AvgLatencyMicros
			}
		case SortLatencyDesc:
			if a.AvgLatencyMicros != b.AvgLatencyMicros {
				return a.AvgLatencyMicros > b.AvgLatencyMicros
			}
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.Region < b.Region
	})
}
