package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
)

// Granularity is the width of a time bucket.
type Granularity string

const (
	Hourly Granularity = "hour"
	Daily  Granularity = "day"
)

// GranularityFor picks hourly buckets for the 72h window and daily buckets
// for every other window.
func GranularityFor(w filter.Window) Granularity {
	if w.Hourly() {
		return Hourly
	}
	return Daily
}

// BucketStart truncates t to the start of its bucket in UTC.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	if g == Hourly {
		return t.Truncate(time.Hour)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Point is the mean latency of one bucket.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is a sparse time series for one key. Buckets without samples are
// absent; SpanGaps tells renderers to connect across them.
type Series struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	SpanGaps bool    `json:"span_gaps"`
	Points   []Point `json:"points"`
}

type bucketKey struct {
	key    string
	bucket int64
}

// groupByBucket accumulates mean latency per (key, bucket). Samples without
// a parsable timestamp have no bucket and are skipped.
func groupByBucket(view []record.Record, g Granularity, keyOf func(record.Record) string) map[string][]Point {
	acc := make(map[bucketKey]*sums)
	for _, r := range view {
		if !r.HasTimestamp() {
			continue
		}
		k := bucketKey{key: keyOf(r), bucket: BucketStart(r.Timestamp, g).Unix()}
		s, ok := acc[k]
		if !ok {
			s = &sums{}
			acc[k] = s
		}
		s.add(r)
	}

	points := make(map[string][]Point)
	for k, s := range acc {
		points[k.key] = append(points[k.key], Point{
			Time:  time.Unix(k.bucket, 0).UTC(),
			Value: s.latency / float64(s.count),
		})
	}
	for _, ps := range points {
		sort.Slice(ps, func(i, j int) bool { return ps[i].Time.Before(ps[j].Time) })
	}
	return points
}

// RegionSeries returns one mean latency series per region, ordered by
// display name.
func RegionSeries(view []record.Record, g Granularity, name regions.Namer) []Series {
	if name == nil {
		name = regions.DisplayName
	}
	grouped := groupByBucket(view, g, func(r record.Record) string { return r.Region })
	out := make([]Series, 0, len(grouped))
	for region, ps := range grouped {
		out = append(out, Series{Key: region, Label: name(region), SpanGaps: true, Points: ps})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// PairSeries returns one mean latency series per directed zone pair,
// ordered by label. Means are rounded to whole microseconds.
func PairSeries(view []record.Record, g Granularity) []Series {
	grouped := groupByBucket(view, g, record.Record.PairLabel)
	out := make([]Series, 0, len(grouped))
	for label, ps := range grouped {
		for i := range ps {
			ps[i].Value = math.Round(ps[i].Value)
		}
		out = append(out, Series{Key: label, Label: label, SpanGaps: true, Points: ps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
