// Package filter narrows a canonical record set by region, zone pair, time
// window and an optional query expression.
package filter

import (
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/query"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Set is a selection of values. An empty set places no restriction.
type Set map[string]struct{}

// NewSet builds a set, ignoring empty strings.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

// Allows reports whether v passes the selection.
func (s Set) Allows(v string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[v]
	return ok
}

// Values returns the selected values in sorted order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Criteria is the active filter selection.
type Criteria struct {
	Regions      Set
	Sources      Set
	Destinations Set
	Window       Window
	Where        *query.Expr
}

// Default returns criteria with no selections and the default window.
func Default() Criteria {
	return Criteria{Window: DefaultWindow}
}

// Cutoff returns the earliest admitted timestamp, or false for AllTime.
func (c Criteria) Cutoff(now time.Time) (time.Time, bool) {
	d := c.Window.Duration()
	if d == 0 {
		return time.Time{}, false
	}
	return now.Add(-d), true
}

// Match reports whether r passes every predicate of c.
func (c Criteria) Match(r record.Record, cutoff time.Time, windowed bool) bool {
	if !c.Regions.Allows(r.Region) || !c.Sources.Allows(r.Source) || !c.Destinations.Allows(r.Destination) {
		return false
	}
	// Samples without a parsable timestamp never fall inside a window.
	if windowed && (!r.HasTimestamp() || r.Timestamp.Before(cutoff)) {
		return false
	}
	if c.Where != nil && !c.Where.Match(r) {
		return false
	}
	return true
}

// Apply returns the records that satisfy c, in their original order.
// Applying the same criteria to the result returns it unchanged.
func Apply(records []record.Record, c Criteria, now time.Time) []record.Record {
	cutoff, windowed := c.Cutoff(now)
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if c.Match(r, cutoff, windowed) {
			out = append(out, r)
		}
	}
	return out
}

// Options are the distinct values available for each selection, sorted.
type Options struct {
	Regions      []string `json:"regions"`
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
}

// AvailableOptions collects the distinct regions, sources and destinations
// present in records.
func AvailableOptions(records []record.Record) Options {
	regions, sources, destinations := NewSet(), NewSet(), NewSet()
	for _, r := range records {
		regions[r.Region] = struct{}{}
		sources[r.Source] = struct{}{}
		destinations[r.Destination] = struct{}{}
	}
	return Options{
		Regions:      regions.Values(),
		Sources:      sources.Values(),
		Destinations: destinations.Values(),
	}
}
