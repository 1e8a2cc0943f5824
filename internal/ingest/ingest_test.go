package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

func rawBatch(n int) []record.Raw {
	raws := make([]record.Raw, n)
	for i := range raws {
		raws[i] = record.Raw{
			PartitionKey: fmt.Sprintf("p%d", i),
			RowKey:       "westeurope",
			Source:       "az1",
			Destination:  "az2",
			Bandwidth:    record.Text(fmt.Sprintf("%d Mb/s", i)),
			Latency:      record.Number(float64(i)),
			Timestamp:    "2024-06-01T00:00:00Z",
		}
	}
	return raws
}

func TestNormalizerPreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNormalizer(ctx, config.IngestConf{Workers: 4, ChunkSize: 7, QueueDepth: 100}, nil)
	defer n.Close()

	raws := rawBatch(250)
	got, err := n.Normalize(ctx, raws)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if diff := cmp.Diff(record.NormalizeAll(raws), got); diff != "" {
		t.Errorf("parallel result differs from sequential (-want +got):\n%s", diff)
	}
}

func TestNormalizerQueueOverflowRunsInline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNormalizer(ctx, config.IngestConf{Workers: 1, ChunkSize: 3, QueueDepth: 1}, nil)
	defer n.Close()

	raws := rawBatch(100)
	got, err := n.Normalize(ctx, raws)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != len(raws) {
		t.Fatalf("got %d records, want %d", len(got), len(raws))
	}
	for i, r := range got {
		if r.Raw.PartitionKey != raws[i].PartitionKey {
			t.Fatalf("record %d out of order: %s", i, r.Raw.PartitionKey)
		}
	}
}

func TestNormalizerAfterClose(t *testing.T) {
	n := NewNormalizer(context.Background(), config.IngestConf{Workers: 2, ChunkSize: 2, QueueDepth: 4}, nil)
	n.Close()
	n.Close()

	got, err := n.Normalize(context.Background(), rawBatch(9))
	if err != nil {
		t.Fatalf("Normalize after Close: %v", err)
	}
	if len(got) != 9 {
		t.Errorf("got %d records", len(got))
	}
}

func TestSplit(t *testing.T) {
	chunks := split(rawBatch(10), 4)
	var sizes []int
	for _, c := range chunks {
		sizes = append(sizes, len(c.raws))
	}
	if diff := cmp.Diff([]int{4, 4, 2}, sizes); diff != "" {
		t.Errorf("chunk sizes (-want +got):\n%s", diff)
	}
}

func TestPoolRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := newPool[int, int](context.Background(), 1, 1, func(_ context.Context, v int) (int, error) {
		started <- struct{}{}
		<-release
		return v * 2, nil
	})

	out := make(chan outcome[int], 3)
	if !p.trySubmit(1, out) {
		t.Fatal("first task rejected")
	}
	<-started
	if !p.trySubmit(2, out) {
		t.Fatal("queued task rejected")
	}
	if got := p.utilization(); got != 1 {
		t.Errorf("utilization = %v, want 1", got)
	}
	if p.trySubmit(3, out) {
		t.Error("task accepted by a full queue")
	}

	close(release)
	got := []int{(<-out).value, (<-out).value}
	if diff := cmp.Diff([]int{2, 4}, got); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}
	p.close()
	p.close()
}
