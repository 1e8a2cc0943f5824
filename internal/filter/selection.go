package filter

import (
	"strings"

	"github.com/gyaneshwarpardhi/netbench/internal/query"
)

// Selection is the wire form of Criteria as sent by clients and the CLI.
type Selection struct {
	Regions      []string `json:"regions,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
	Window       string   `json:"window,omitempty"`
	Where        string   `json:"where,omitempty"`
}

// Criteria validates the selection. An empty window falls back to def.
func (s Selection) Criteria(def Window) (Criteria, error) {
	c := Criteria{
		Regions:      NewSet(splitAll(s.Regions)...),
		Sources:      NewSet(splitAll(s.Sources)...),
		Destinations: NewSet(splitAll(s.Destinations)...),
		Window:       def,
	}
	if s.Window != "" {
		w, err := ParseWindow(s.Window)
		if err != nil {
			return Criteria{}, err
		}
		c.Window = w
	}
	if strings.TrimSpace(s.Where) != "" {
		e, err := query.Parse(s.Where)
		if err != nil {
			return Criteria{}, err
		}
		c.Where = e
	}
	return c, nil
}

// Empty reports whether no field of the selection is set.
func (s Selection) Empty() bool {
	return len(s.Regions) == 0 && len(s.Sources) == 0 && len(s.Destinations) == 0 &&
		s.Window == "" && s.Where == ""
}

// Selection returns the wire form of c.
func (c Criteria) Selection() Selection {
	s := Selection{
		Regions:      c.Regions.Values(),
		Sources:      c.Sources.Values(),
		Destinations: c.Destinations.Values(),
		Window:       c.Window.String(),
	}
	if c.Where != nil {
		s.Where = c.Where.String()
	}
	return s
}

// splitAll accepts both repeated values and comma separated lists.
func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
