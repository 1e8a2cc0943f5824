package filter

import (
	"fmt"
	"time"
)

// Window is a trailing time range relative to now. The zero value is
// AllTime, so criteria that never set a window keep every record.
type Window int

const (
	AllTime Window = iota
	Last72Hours
	Last7Days
	Last30Days
)

// DefaultWindow is the window applied when filters are cleared.
const DefaultWindow = Last7Days

var windowNames = map[Window]string{
	Last72Hours: "72h",
	Last7Days:   "7d",
	Last30Days:  "30d",
	AllTime:     "all",
}

// ParseWindow parses "72h", "7d", "30d" or "all".
func ParseWindow(s string) (Window, error) {
	for w, name := range windowNames {
		if name == s {
			return w, nil
		}
	}
	return 0, fmt.Errorf("filter: unknown time window %q (want 72h, 7d, 30d or all)", s)
}

func (w Window) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// Duration is the length of the window; zero for AllTime.
func (w Window) Duration() time.Duration {
	switch w {
	case Last72Hours:
		return 72 * time.Hour
	case Last7Days:
		return 7 * 24 * time.Hour
	case Last30Days:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Hourly reports whether time series over this window use hourly buckets.
// Every other window uses daily buckets.
func (w Window) Hourly() bool {
	return w == Last72Hours
}

func (w Window) MarshalText() ([]byte, error) {
	if _, ok := windowNames[w]; !ok {
		return nil, fmt.Errorf("filter: invalid window %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Window) UnmarshalText(text []byte) error {
	parsed, err := ParseWindow(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
