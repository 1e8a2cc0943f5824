// Package ingest normalizes raw batches on a bounded worker pool.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/metrics"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// chunk is a contiguous slice of a raw batch.
type chunk struct {
	index int
	raws  []record.Raw
}

type normalized struct {
	index   int
	records []record.Record
}

// Normalizer splits large batches into chunks and normalizes them in
// parallel. Output order always matches input order.
type Normalizer struct {
	pool      *pool[chunk, normalized]
	chunkSize int
	done      <-chan struct{}
	log       *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewNormalizer starts conf.Workers goroutines that live until ctx is
// cancelled or Close is called.
func NewNormalizer(ctx context.Context, conf config.IngestConf, log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	workers := max(conf.Workers, 1)
	return &Normalizer{
		pool: newPool[chunk, normalized](ctx, workers, max(conf.QueueDepth, 1),
			func(_ context.Context, c chunk) (normalized, error) {
				return normalized{index: c.index, records: record.NormalizeAll(c.raws)}, nil
			}),
		chunkSize: max(conf.ChunkSize, 1),
		done:      ctx.Done(),
		log:       log,
	}
}

// Normalize converts raws into canonical records.
func (n *Normalizer) Normalize(ctx context.Context, raws []record.Raw) ([]record.Record, error) {
	defer metrics.RecordsNormalized.Add(float64(len(raws)))
	if len(raws) <= n.chunkSize {
		return record.NormalizeAll(raws), nil
	}

	chunks := split(raws, n.chunkSize)
	parts := make([][]record.Record, len(chunks))
	results := make(chan outcome[normalized], len(chunks))
	pending := 0

	n.mu.RLock()
	for _, c := range chunks {
		if !n.closed && n.pool.trySubmit(c, results) {
			pending++
			continue
		}
		// Queue full or pool closed: do the work here.
		parts[c.index] = record.NormalizeAll(c.raws)
	}
	n.mu.RUnlock()
	n.observeQueue()

	for ; pending > 0; pending-- {
		select {
		case res := <-results:
			parts[res.value.index] = res.value.records
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-n.done:
			return nil, context.Canceled
		}
	}

	out := make([]record.Record, 0, len(raws))
	for _, p := range parts {
		out = append(out, p...)
	}
	n.log.Debug("normalized batch", "records", len(out), "chunks", len(chunks), "busy_workers", n.pool.busy())
	return out, nil
}

func (n *Normalizer) observeQueue() {
	metrics.IngestQueueUtilization.Set(n.pool.utilization())
}

// Close drains the pool. Later calls to Normalize run inline.
func (n *Normalizer) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.pool.close()
}

func split(raws []record.Raw, size int) []chunk {
	chunks := make([]chunk, 0, (len(raws)+size-1)/size)
	for start := 0; start < len(raws); start += size {
		end := min(start+size, len(raws))
		chunks = append(chunks, chunk{index: len(chunks), raws: raws[start:end]})
	}
	return chunks
}
