package aggregate

import (
	"sort"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Cell is the mean latency for one directed zone pair.
type Cell struct {
	AvgLatencyMicros float64 `json:"avg_latency_us"`
	Count            int     `json:"count"`
}

// Matrix is a source × destination table of mean latency. Cells[i][j] is
// nil when no sample went from Sources[i] to Destinations[j].
type Matrix struct {
	Sources      []string  `json:"sources"`
	Destinations []string  `json:"destinations"`
	Cells        [][]*Cell `json:"cells"`
}

// PairMatrix tabulates view by source and destination zone. Rows and
// columns are sorted.
func PairMatrix(view []record.Record) Matrix {
	acc := make(map[[2]string]*sums)
	srcSeen := make(map[string]bool)
	dstSeen := make(map[string]bool)
	for _, r := range view {
		k := [2]string{r.Source, r.Destination}
		s, ok := acc[k]
		if !ok {
			s = &sums{}
			acc[k] = s
		}
		s.add(r)
		srcSeen[r.Source] = true
		dstSeen[r.Destination] = true
	}

	m := Matrix{Sources: sortedKeys(srcSeen), Destinations: sortedKeys(dstSeen)}
	m.Cells = make([][]*Cell, len(m.Sources))
	for i, src := range m.Sources {
		m.Cells[i] = make([]*Cell, len(m.Destinations))
		for j, dst := range m.Destinations {
			if s, ok := acc[[2]string{src, dst}]; ok {
				m.Cells[i][j] = &Cell{AvgLatencyMicros: s.latency / float64(s.count), Count: s.count}
			}
		}
	}
	return m
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
