package dashboard

import (
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
	"github.com/gyaneshwarpardhi/netbench/internal/anomaly"
	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/metrics"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
	"github.com/gyaneshwarpardhi/netbench/internal/summary"
)

// LatestLimit is the number of records in Snapshot.Latest.
const LatestLimit = 100

// Snapshot is every dashboard view computed from one filtered view of the
// dataset.
type Snapshot struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	LoadedAt     time.Time              `json:"loaded_at"`
	Warning      string                 `json:"warning,omitempty"`
	Criteria     filter.Selection       `json:"criteria"`
	Granularity  aggregate.Granularity  `json:"granularity"`
	Summary      summary.Summary        `json:"summary"`
	Regions      []aggregate.RegionStat `json:"regions"`
	RegionSeries []aggregate.Series     `json:"region_series"`
	PairSeries   []aggregate.Series     `json:"pair_series"`
	Anomalies    anomaly.Report         `json:"anomalies"`
	Distribution []aggregate.Bin        `json:"distribution"`
	Trend        []aggregate.TrendPoint `json:"trend"`
	Matrix       aggregate.Matrix       `json:"matrix"`
	Latest       []record.Record        `json:"latest"`
	Options      filter.Options         `json:"options"`

	// View is the filtered record set the snapshot was computed from.
	View []record.Record `json:"-"`
}

// View applies c to the current dataset.
func (s *State) View(c filter.Criteria) []record.Record {
	ds := s.dataset.Load()
	if ds == nil {
		return nil
	}
	return filter.Apply(ds.Records, c, s.cfg.Clock.Now())
}

// Snapshot recomputes every view for c. Before the first refresh it
// describes an empty dataset.
func (s *State) Snapshot(c filter.Criteria) Snapshot {
	start := s.cfg.Clock.Now()
	defer func() {
		metrics.SnapshotDuration.Observe(float64(s.cfg.Clock.Since(start).Microseconds()) / 1000)
	}()

	ds := s.dataset.Load()
	if ds == nil {
		ds = &Dataset{}
	}
	view := filter.Apply(ds.Records, c, start)
	classifier := s.Classifier()
	g := aggregate.GranularityFor(c.Window)

	return Snapshot{
		GeneratedAt:  start,
		LoadedAt:     ds.LoadedAt,
		Warning:      ds.Warning,
		Criteria:     c.Selection(),
		Granularity:  g,
		Summary:      summary.Project(view, classifier),
		Regions:      aggregate.RegionStats(view, regions.DisplayName, aggregate.SortAlphabetical),
		RegionSeries: aggregate.RegionSeries(view, g, regions.DisplayName),
		PairSeries:   aggregate.PairSeries(view, g),
		Anomalies:    classifier.Detect(view),
		Distribution: aggregate.LatencyDistribution(view),
		Trend:        aggregate.DailyTrend(view),
		Matrix:       aggregate.PairMatrix(view),
		Latest:       aggregate.Latest(view, LatestLimit),
		Options:      ds.Options,
		View:         view,
	}
}

// ActiveSnapshot is Snapshot for the active criteria.
func (s *State) ActiveSnapshot() Snapshot {
	return s.Snapshot(s.Criteria())
}
