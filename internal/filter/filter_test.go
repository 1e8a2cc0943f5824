package filter_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/query"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func sample(region, src, dst string, age time.Duration, latency float64) record.Record {
	return record.Record{
		Timestamp:     now.Add(-age),
		Region:        region,
		Source:        src,
		Destination:   dst,
		LatencyMicros: latency,
		BandwidthGbps: 10,
	}
}

func fixture() []record.Record {
	return []record.Record{
		sample("westeurope", "az1", "az2", time.Hour, 300),
		sample("eastasia", "az1", "az1", 50*time.Hour, 12),
		sample("westeurope", "az2", "az3", 5*24*time.Hour, 1200),
		sample("centralus", "az3", "az1", 20*24*time.Hour, 700),
		sample("westeurope", "az1", "az3", 60*24*time.Hour, 90),
		{Region: "eastasia", Source: "az2", Destination: "az2"}, // unparsable timestamp
	}
}

func regionsOf(rs []record.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Region + "/" + r.Source + "/" + r.Destination
	}
	return out
}

func TestApply(t *testing.T) {
	cases := []struct {
		name string
		c    filter.Criteria
		want []string
	}{
		{
			name: "72h window",
			c:    filter.Criteria{Window: filter.Last72Hours},
			want: []string{"westeurope/az1/az2", "eastasia/az1/az1"},
		},
		{
			name: "7d window",
			c:    filter.Criteria{Window: filter.Last7Days},
			want: []string{"westeurope/az1/az2", "eastasia/az1/az1", "westeurope/az2/az3"},
		},
		{
			name: "30d window",
			c:    filter.Criteria{Window: filter.Last30Days},
			want: []string{"westeurope/az1/az2", "eastasia/az1/az1", "westeurope/az2/az3", "centralus/az3/az1"},
		},
		{
			name: "all time keeps sentinel timestamps",
			c:    filter.Criteria{Window: filter.AllTime},
			want: []string{"westeurope/az1/az2", "eastasia/az1/az1", "westeurope/az2/az3", "centralus/az3/az1", "westeurope/az1/az3", "eastasia/az2/az2"},
		},
		{
			name: "region selection",
			c:    filter.Criteria{Window: filter.AllTime, Regions: filter.NewSet("westeurope")},
			want: []string{"westeurope/az1/az2", "westeurope/az2/az3", "westeurope/az1/az3"},
		},
		{
			name: "source and destination",
			c: filter.Criteria{
				Window:       filter.AllTime,
				Sources:      filter.NewSet("az1"),
				Destinations: filter.NewSet("az2", "az3"),
			},
			want: []string{"westeurope/az1/az2", "westeurope/az1/az3"},
		},
		{
			name: "where expression",
			c:    filter.Criteria{Window: filter.Last30Days, Where: query.MustParse("latency_us >= 700")},
			want: []string{"westeurope/az2/az3", "centralus/az3/az1"},
		},
		{
			name: "no match",
			c:    filter.Criteria{Window: filter.AllTime, Regions: filter.NewSet("brazilsouth")},
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := regionsOf(filter.Apply(fixture(), tc.c, now))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	c := filter.Criteria{
		Window:  filter.Last30Days,
		Regions: filter.NewSet("westeurope", "centralus"),
		Where:   query.MustParse("NOT intra_zone"),
	}
	once := filter.Apply(fixture(), c, now)
	twice := filter.Apply(once, c, now)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Apply not idempotent (-once +twice):\n%s", diff)
	}
}

func TestCutoffInclusive(t *testing.T) {
	edge := sample("westeurope", "az1", "az2", 72*time.Hour, 1)
	got := filter.Apply([]record.Record{edge}, filter.Criteria{Window: filter.Last72Hours}, now)
	if len(got) != 1 {
		t.Fatalf("record exactly at the cutoff should be kept, got %d", len(got))
	}
}

func TestAvailableOptions(t *testing.T) {
	got := filter.AvailableOptions(fixture())
	want := filter.Options{
		Regions:      []string{"centralus", "eastasia", "westeurope"},
		Sources:      []string{"az1", "az2", "az3"},
		Destinations: []string{"az1", "az2", "az3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AvailableOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestSelection(t *testing.T) {
	sel := filter.Selection{
		Regions: []string{"westeurope,northeurope", " "},
		Window:  "72h",
		Where:   "latency_us > 5",
	}
	c, err := sel.Criteria(filter.DefaultWindow)
	if err != nil {
		t.Fatalf("Criteria: %v", err)
	}
	if c.Window != filter.Last72Hours {
		t.Errorf("window = %v", c.Window)
	}
	back := c.Selection()
	want := filter.Selection{
		Regions:      []string{"northeurope", "westeurope"},
		Sources:      []string{},
		Destinations: []string{},
		Window:       "72h",
		Where:        "latency_us > 5",
	}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("Selection mismatch (-want +got):\n%s", diff)
	}

	empty, err := filter.Selection{}.Criteria(filter.DefaultWindow)
	if err != nil || empty.Window != filter.Last7Days {
		t.Errorf("empty selection = %+v, %v", empty, err)
	}
	if _, err := (filter.Selection{Window: "1y"}).Criteria(filter.DefaultWindow); err == nil {
		t.Error("expected error for unknown window")
	}
	if _, err := (filter.Selection{Where: "bogus"}).Criteria(filter.DefaultWindow); err == nil {
		t.Error("expected error for invalid where expression")
	}
}

func TestParseWindow(t *testing.T) {
	for _, s := range []string{"72h", "7d", "30d", "all"} {
		w, err := filter.ParseWindow(s)
		if err != nil {
			t.Fatalf("ParseWindow(%q): %v", s, err)
		}
		if w.String() != s {
			t.Errorf("round trip %q -> %q", s, w.String())
		}
	}
	if !filter.Last72Hours.Hourly() || filter.Last7Days.Hourly() {
		t.Error("only the 72h window is hourly")
	}
}

func TestZeroCriteriaKeepsEverything(t *testing.T) {
	var c filter.Criteria
	if c.Window != filter.AllTime || c.Window.Hourly() {
		t.Errorf("zero window = %s, want all", c.Window)
	}
	if _, windowed := c.Cutoff(now); windowed {
		t.Error("zero criteria applied a time cutoff")
	}
	got := filter.Apply(fixture(), c, now)
	if len(got) != len(fixture()) {
		t.Errorf("zero criteria kept %d of %d records", len(got), len(fixture()))
	}
}
