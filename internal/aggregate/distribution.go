package aggregate

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Bin is one latency histogram range, [Min, Max) in microseconds. The last
// bin has Max = +Inf, encoded as a null max_us.
type Bin struct {
	Label string
	Min   float64
	Max   float64
	Count int
}

func (b Bin) MarshalJSON() ([]byte, error) {
	wire := struct {
		Label string   `json:"label"`
		Min   float64  `json:"min_us"`
		Max   *float64 `json:"max_us"`
		Count int      `json:"count"`
	}{Label: b.Label, Min: b.Min, Count: b.Count}
	if !math.IsInf(b.Max, 1) {
		wire.Max = &b.Max
	}
	return json.Marshal(wire)
}

var latencyBins = []Bin{
	{Label: "< 100 μs", Min: 0, Max: 100},
	{Label: "100-500 μs", Min: 100, Max: 500},
	{Label: "500-1000 μs", Min: 500, Max: 1000},
	{Label: "1000-5000 μs", Min: 1000, Max: 5000},
	{Label: "> 5000 μs", Min: 5000, Max: math.Inf(1)},
}

// LatencyDistribution counts view into fixed latency ranges.
func LatencyDistribution(view []record.Record) []Bin {
	out := make([]Bin, len(latencyBins))
	copy(out, latencyBins)
	for _, r := range view {
		for i := range out {
			if r.LatencyMicros < out[i].Max {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// TrendPoint is the daily mean bandwidth and latency across all regions.
type TrendPoint struct {
	Day              time.Time `json:"day"`
	Count            int       `json:"count"`
	AvgBandwidthGbps float64   `json:"avg_bandwidth_gbps"`
	AvgLatencyMicros float64   `json:"avg_latency_us"`
}

// DailyTrend averages view per UTC day, oldest first. Latency is rounded to
// whole microseconds.
func DailyTrend(view []record.Record) []TrendPoint {
	days := make(map[int64]*sums)
	for _, r := range view {
		if !r.HasTimestamp() {
			continue
		}
		k := BucketStart(r.Timestamp, Daily).Unix()
		s, ok := days[k]
		if !ok {
			s = &sums{}
			days[k] = s
		}
		s.add(r)
	}
	out := make([]TrendPoint, 0, len(days))
	for k, s := range days {
		out = append(out, TrendPoint{
			Day:              time.Unix(k, 0).UTC(),
			Count:            s.count,
			AvgBandwidthGbps: s.bandwidth / float64(s.count),
			AvgLatencyMicros: math.Round(s.latency / float64(s.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// Latest returns up to n records, newest first. Samples without a parsable
// timestamp sort last.
func Latest(view []record.Record, n int) []record.Record {
	out := make([]record.Record, len(view))
	copy(out, view)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
