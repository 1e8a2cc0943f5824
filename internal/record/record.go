// Package record defines the raw and canonical forms of a network benchmark
// sample and the normalization between them.
package record

import (
	"time"
)

// Unknown is substituted for a missing region, source or destination.
const Unknown = "unknown"

// Raw is a benchmark sample exactly as a source returned it. Any field may be
// empty or malformed.
type Raw struct {
	PartitionKey string `json:"PartitionKey" dynamodbav:"PartitionKey"`
	RowKey       string `json:"RowKey" dynamodbav:"RowKey"`
	Source       string `json:"Source" dynamodbav:"Source"`
	Destination  string `json:"Destination" dynamodbav:"Destination"`
	Bandwidth    Field  `json:"Bandwidth" dynamodbav:"Bandwidth"`
	Latency      Field  `json:"Latency" dynamodbav:"Latency"`
	Timestamp    string `json:"Timestamp" dynamodbav:"Timestamp"`
}

// Record is the canonical, normalized form of a sample. Records are never
// mutated after normalization.
type Record struct {
	// Timestamp is the zero time when the raw timestamp could not be parsed.
	Timestamp     time.Time `json:"timestamp"`
	Region        string    `json:"region"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	BandwidthGbps float64   `json:"bandwidth_gbps"`
	LatencyMicros float64   `json:"latency_us"`
	Raw           Raw       `json:"-"`
}

// HasTimestamp reports whether the sample carried a parsable timestamp.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// IntraZone reports whether the sample was measured within a single zone.
func (r Record) IntraZone() bool {
	return r.Source == r.Destination
}

// PairLabel is the direction-sensitive zone pair label, e.g. "az1 → az2".
func (r Record) PairLabel() string {
	return PairLabel(r.Source, r.Destination)
}

// PairLabel joins a source and destination zone into a pair label.
func PairLabel(source, destination string) string {
	return source + " → " + destination
}
