package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

func TestWriteCSV(t *testing.T) {
	view := []record.Record{
		{
			Timestamp:     time.Date(2024, 6, 30, 10, 15, 0, 0, time.UTC),
			Region:        "westeurope",
			Source:        "az1",
			Destination:   "az2",
			BandwidthGbps: 9.456,
			LatencyMicros: 120.5,
		},
		{
			Region:        "east, asia",
			Source:        "az2",
			Destination:   "az3",
			BandwidthGbps: 1,
			LatencyMicros: 80.2,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, view); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Timestamp,Region,Source,Destination,Bandwidth (Gb/s),Latency (μs)\n" +
		"2024-06-30T10:15:00Z,westeurope,az1,az2,9.46,121\n" +
		",\"east, asia\",az2,az3,1.00,80\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV:\ngot  %q\nwant %q", got, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := buf.String(); got != "Timestamp,Region,Source,Destination,Bandwidth (Gb/s),Latency (μs)\n" {
		t.Errorf("got %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVError(t *testing.T) {
	if err := WriteCSV(failingWriter{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	if got, want := FileName(now), "network-benchmark-2024-03-06.csv"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}
