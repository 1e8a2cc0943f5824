// Package anomaly flags samples whose latency exceeds fixed thresholds.
package anomaly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Severity is a presentation hint attached to an anomalous sample.
type Severity string

const (
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

// Thresholds holds the classification limits in microseconds. Comparisons
// are strict: a latency equal to a threshold is not anomalous.
type Thresholds struct {
	IntraZoneMicros float64 `yaml:"intra_zone_us" json:"intra_zone_us"`
	InterZoneMicros float64 `yaml:"inter_zone_us" json:"inter_zone_us"`
	CriticalMicros  float64 `yaml:"critical_us" json:"critical_us"`
	// Limit caps the number of anomalies listed, not the number counted.
	Limit int `yaml:"limit" json:"limit"`
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		IntraZoneMicros: 500,
		InterZoneMicros: 1000,
		CriticalMicros:  5000,
		Limit:           50,
	}
}

// Validate reports non-positive limits.
func (t Thresholds) Validate() error {
	var errs []string
	if t.IntraZoneMicros <= 0 {
		errs = append(errs, "intra_zone_us must be positive")
	}
	if t.InterZoneMicros <= 0 {
		errs = append(errs, "inter_zone_us must be positive")
	}
	if t.CriticalMicros <= 0 {
		errs = append(errs, "critical_us must be positive")
	}
	if t.Limit <= 0 {
		errs = append(errs, "limit must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("anomaly thresholds: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Classifier applies a set of thresholds.
type Classifier struct {
	t Thresholds
}

// New returns a classifier for t.
func New(t Thresholds) Classifier {
	return Classifier{t: t}
}

// Thresholds returns the limits the classifier applies.
func (c Classifier) Thresholds() Thresholds { return c.t }

// IsAnomalous reports whether r exceeds the limit for its zone relation.
func (c Classifier) IsAnomalous(r record.Record) bool {
	if r.IntraZone() {
		return r.LatencyMicros > c.t.IntraZoneMicros
	}
	return r.LatencyMicros > c.t.InterZoneMicros
}

// Severity grades r regardless of whether it is anomalous.
func (c Classifier) Severity(r record.Record) Severity {
	if r.LatencyMicros > c.t.CriticalMicros {
		return Critical
	}
	return Warning
}

// Count returns the number of anomalous samples in view.
func (c Classifier) Count(view []record.Record) int {
	n := 0
	for _, r := range view {
		if c.IsAnomalous(r) {
			n++
		}
	}
	return n
}

// Anomaly is a flagged sample.
type Anomaly struct {
	Record   record.Record `json:"record"`
	Severity Severity      `json:"severity"`
}

// Report lists the most recent anomalies. Total counts every anomaly in the
// view even when Anomalies was truncated.
type Report struct {
	Anomalies []Anomaly `json:"anomalies"`
	Total     int       `json:"total"`
}

// Detect returns the anomalies in view, newest first, truncated to the
// configured limit. Equal timestamps are ordered by region, source and
// destination, then by position in view.
func (c Classifier) Detect(view []record.Record) Report {
	var flagged []Anomaly
	for _, r := range view {
		if c.IsAnomalous(r) {
			flagged = append(flagged, Anomaly{Record: r, Severity: c.Severity(r)})
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i].Record, flagged[j].Record
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Destination < b.Destination
	})

	rep := Report{Anomalies: flagged, Total: len(flagged)}
	if c.t.Limit > 0 && len(rep.Anomalies) > c.t.Limit {
		rep.Anomalies = rep.Anomalies[:c.t.Limit]
	}
	if rep.Anomalies == nil {
		rep.Anomalies = []Anomaly{}
	}
	return rep
}
