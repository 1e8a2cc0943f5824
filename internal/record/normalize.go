package record

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Unit is the unit a measurement was reported in.
type Unit string

const (
	Gbps   Unit = "Gb/s"
	Mbps   Unit = "Mb/s"
	Micros Unit = "us"
	Millis Unit = "ms"
)

// Quantity is a measurement with its unit resolved at ingestion.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Gbps converts a bandwidth quantity to gigabits per second.
func (q Quantity) Gbps() float64 {
	if q.Unit == Mbps {
		return q.Value / 1000
	}
	return q.Value
}

// Micros converts a latency quantity to microseconds.
func (q Quantity) Micros() float64 {
	if q.Unit == Millis {
		return q.Value * 1000
	}
	return q.Value
}

// ParseBandwidth resolves a bandwidth field. Text mentioning "mb" in any case
// is megabits; everything else, including bare numbers, is gigabits.
func ParseBandwidth(f Field) Quantity {
	switch f.Kind {
	case FieldText:
		q := Quantity{Value: leadingNumber(f.Text), Unit: Gbps}
		if strings.Contains(strings.ToLower(f.Text), "mb") {
			q.Unit = Mbps
		}
		return q
	case FieldNumber:
		return Quantity{Value: sanitize(f.Number), Unit: Gbps}
	}
	return Quantity{Unit: Gbps}
}

// ParseLatency resolves a latency field. Text mentioning "ms" in any case is
// milliseconds; everything else, including bare numbers, is microseconds.
func ParseLatency(f Field) Quantity {
	switch f.Kind {
	case FieldText:
		q := Quantity{Value: leadingNumber(f.Text), Unit: Micros}
		if strings.Contains(strings.ToLower(f.Text), "ms") {
			q.Unit = Millis
		}
		return q
	case FieldNumber:
		return Quantity{Value: sanitize(f.Number), Unit: Micros}
	}
	return Quantity{Unit: Micros}
}

// leadingNumber parses the first run of digits in s, with at most one
// decimal point. A dot only starts a run when a digit follows it, so the
// "." in "Lat.: 450 us" is skipped. No run yields 0.
func leadingNumber(s string) float64 {
	start := -1
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) || (s[i] == '.' && i+1 < len(s) && isDigit(s[i+1])) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	end := start
	dots := 0
	for end < len(s) && isNumberRune(rune(s[end])) {
		if s[end] == '.' {
			dots++
			if dots > 1 {
				break
			}
		}
		end++
	}
	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNumberRune(r rune) bool {
	return r == '.' || (r >= '0' && r <= '9')
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Timestamps without a zone are
// taken as UTC. Unparsable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Normalize converts a raw sample into its canonical form. It never fails:
// every malformed field falls back to its documented default.
func Normalize(raw Raw) Record {
	return Record{
		Timestamp:     ParseTimestamp(raw.Timestamp),
		Region:        orUnknown(raw.RowKey),
		Source:        orUnknown(raw.Source),
		Destination:   orUnknown(raw.Destination),
		BandwidthGbps: ParseBandwidth(raw.Bandwidth).Gbps(),
		LatencyMicros: ParseLatency(raw.Latency).Micros(),
		Raw:           raw,
	}
}

// NormalizeAll normalizes a batch, preserving order.
func NormalizeAll(raws []Raw) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
