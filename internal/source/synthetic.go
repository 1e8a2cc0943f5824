package source

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

var (
	syntheticRegions = []string{"francecentral", "westeurope", "northeurope", "centralus", "eastasia"}
	syntheticZones   = []string{"az1", "az2", "az3"}
)

const (
	syntheticDays = 30
	syntheticStep = 6 // hours between samples
)

// Generate produces a month of plausible benchmark samples ending at now:
// every region and every ordered zone pair, every six hours. Intra-zone
// pairs hover around 25 Gb/s and 10 µs; inter-zone pairs range over
// 5-25 Gb/s and 50-550 µs. Values are rendered as text with units, the way
// the benchmark agents report them.
func Generate(now time.Time, rng *rand.Rand) []record.Raw {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	raws := make([]record.Raw, 0, syntheticDays*(24/syntheticStep)*len(syntheticRegions)*len(syntheticZones)*len(syntheticZones))
	for d := 0; d < syntheticDays; d++ {
		for h := 0; h < 24; h += syntheticStep {
			ts := day.AddDate(0, 0, -d).Add(time.Duration(h) * time.Hour)
			if ts.After(now) {
				continue
			}
			for _, region := range syntheticRegions {
				for _, src := range syntheticZones {
					for _, dst := range syntheticZones {
						bandwidth, latency := 25.0, 10.0
						if src != dst {
							bandwidth = rng.Float64()*20 + 5
							latency = rng.Float64()*500 + 50
						}
						bandwidth += (rng.Float64() - 0.5) * 5
						latency += (rng.Float64() - 0.5) * 100
						raws = append(raws, record.Raw{
							PartitionKey: "test-" + randomID(rng, 9),
							RowKey:       region,
							Source:       src,
							Destination:  dst,
							Bandwidth:    record.Text(fmt.Sprintf("%.2f Gb/sec", bandwidth)),
							Latency:      record.Text(fmt.Sprintf("%d us", int(math.Round(latency)))),
							Timestamp:    ts.Format(time.RFC3339Nano),
						})
					}
				}
			}
		}
	}
	return raws
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomID(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rng.IntN(len(idAlphabet))]
	}
	return string(b)
}

// SyntheticSource serves generated data. It is also the fallback dataset
// when the configured source fails.
type SyntheticSource struct {
	clock clockwork.Clock
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewSynthetic returns a generator seeded with seed.
func NewSynthetic(clock clockwork.Clock, seed int64) *SyntheticSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SyntheticSource{
		clock: clock,
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

func (s *SyntheticSource) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	raws := Generate(s.clock.Now(), s.rng)
	s.mu.Unlock()
	return clip(raws, q), nil
}

// FallbackRecords is the minimal dataset the data API serves when its store
// is unreachable.
func FallbackRecords(now time.Time) []record.Raw {
	ts := now.UTC().Format(time.RFC3339Nano)
	return []record.Raw{
		{
			PartitionKey: "fallback",
			RowKey:       "1",
			Source:       "East US",
			Destination:  "West US",
			Bandwidth:    record.Text("1000"),
			Latency:      record.Text("50"),
			Timestamp:    ts,
		},
		{
			PartitionKey: "fallback",
			RowKey:       "2",
			Source:       "North Europe",
			Destination:  "West Europe",
			Bandwidth:    record.Text("1500"),
			Latency:      record.Text("25"),
			Timestamp:    ts,
		},
	}
}
