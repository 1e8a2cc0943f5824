package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

var now = time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)

func fastBackOff() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }

func TestHTTPSourceSuccess(t *testing.T) {
	t.Parallel()
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"PartitionKey":"a","RowKey":"westeurope","Source":"az1","Destination":"az2","Bandwidth":"9.5 Gb/sec","Latency":120,"Timestamp":"2024-06-30T10:00:00Z"},
			{"PartitionKey":"b","RowKey":"westeurope","Source":"az1","Destination":"az2","Bandwidth":"1 Gb/sec","Latency":"80 us","Timestamp":"2024-06-29T10:00:00Z"},
			{"PartitionKey":"c","RowKey":"westeurope","Source":"az1","Destination":"az2","Bandwidth":"1 Gb/sec","Latency":"80 us","Timestamp":"2024-06-28T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL+"/api/data", WithBackOff(fastBackOff))
	raws, err := src.Fetch(context.Background(), Query{Since: now.Add(-48 * time.Hour), Limit: 2})
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "a", raws[0].PartitionKey)
	assert.Equal(t, record.FieldNumber, raws[0].Latency.Kind)
	assert.Equal(t, "9.5 Gb/sec", raws[0].Bandwidth.Text)
	assert.Contains(t, gotQuery, "limit=2")
	assert.Contains(t, gotQuery, "since=2024-06-28T23%3A59%3A00Z")
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"RowKey":"eastasia"}]`))
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL, WithBackOff(fastBackOff), WithMaxRetries(5))
	raws, err := src.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, raws, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPSourceClientErrorIsPermanent(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such table", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, WithBackOff(fastBackOff)).Fetch(context.Background(), Query{})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "no such table")
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPSourceGivesUp(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, WithBackOff(fastBackOff), WithMaxRetries(2)).Fetch(context.Background(), Query{})
	require.Error(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	pages  []*dynamodb.ScanOutput
	input  *dynamodb.ScanInput
	served int
}

func (f *fakeDynamo) ScanPagesWithContext(_ aws.Context, in *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	f.input = in
	for i, p := range f.pages {
		f.served++
		if !fn(p, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func item(region, latency string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"RowKey":    {S: aws.String(region)},
		"Source":    {S: aws.String("az1")},
		"Latency":   {S: aws.String(latency)},
		"Bandwidth": {N: aws.String("12.5")},
		"Timestamp": {S: aws.String("2024-06-30T00:00:00Z")},
	}
}

func TestDynamoDBSource(t *testing.T) {
	t.Parallel()
	fake := &fakeDynamo{pages: []*dynamodb.ScanOutput{
		{Items: []map[string]*dynamodb.AttributeValue{item("westeurope", "10 us"), item("westeurope", "1 ms")}},
		{Items: []map[string]*dynamodb.AttributeValue{item("eastasia", "20 us")}},
		{Items: []map[string]*dynamodb.AttributeValue{item("centralus", "30 us")}},
	}}
	src := NewDynamoDBWithClient(fake, "perf")

	raws, err := src.Fetch(context.Background(), Query{Since: now.Add(-time.Hour), Limit: 3})
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, 2, fake.served, "scan should stop once the limit is reached")
	assert.Equal(t, "perf", aws.StringValue(fake.input.TableName))
	assert.Equal(t, "#ts >= :since", aws.StringValue(fake.input.FilterExpression))
	assert.Equal(t, "2024-06-30T22:59:00Z", aws.StringValue(fake.input.ExpressionAttributeValues[":since"].S))

	r := record.Normalize(raws[1])
	assert.Equal(t, 1000.0, r.LatencyMicros)
	assert.Equal(t, 12.5, r.BandwidthGbps)
}

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	f.pos++
	return f.pos <= len(f.rows)
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *time.Time:
			*p = row[i].(time.Time)
		}
	}
	return nil
}

func (f *fakeRows) Err() error   { return f.err }
func (f *fakeRows) Close() error { return nil }

func TestReadRows(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]any{
		{"p1", "westeurope", "az1", "az3", "800 Mb/s", "2 ms", ts},
		{"p2", "", "", "", "", "", time.Time{}},
	}}
	raws, err := readRows(rows)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "2024-06-30T08:00:00Z", raws[0].Timestamp)

	r := record.Normalize(raws[0])
	assert.InDelta(t, 0.8, r.BandwidthGbps, 1e-9)
	assert.Equal(t, 2000.0, r.LatencyMicros)

	empty := record.Normalize(raws[1])
	assert.False(t, empty.HasTimestamp())
	assert.Equal(t, record.Unknown, empty.Region)

	_, err = readRows(&fakeRows{err: errors.New("connection reset")})
	require.Error(t, err)
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"RowKey":"westeurope","Timestamp":"2024-06-30T00:00:00Z"},
		{"RowKey":"eastasia","Timestamp":"2024-01-01T00:00:00Z"},
		{"RowKey":"centralus","Timestamp":"garbage"}
	]`), 0o644))

	raws, err := NewFile(path).Fetch(context.Background(), Query{Since: now.AddDate(0, 0, -30)})
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "westeurope", raws[0].RowKey)
	assert.Equal(t, "centralus", raws[1].RowKey)

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background(), Query{})
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	src := NewSynthetic(clockwork.NewFakeClockAt(now), 7)
	raws, err := src.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, raws, 30*4*5*9)

	oldest := now.AddDate(0, 0, -30)
	for _, raw := range raws {
		r := record.Normalize(raw)
		require.True(t, r.HasTimestamp())
		require.False(t, r.Timestamp.After(now))
		require.True(t, r.Timestamp.After(oldest))
		if r.IntraZone() {
			require.InDelta(t, 25, r.BandwidthGbps, 2.5+0.01)
		} else {
			require.GreaterOrEqual(t, r.BandwidthGbps, 2.5-0.01)
			require.LessOrEqual(t, r.LatencyMicros, 600.0)
		}
	}
	assert.Regexp(t, `^test-[0-9a-z]{9}$`, raws[0].PartitionKey)
	assert.Regexp(t, `^\d+\.\d{2} Gb/sec$`, raws[0].Bandwidth.Text)
	assert.Regexp(t, `^-?\d+ us$`, raws[0].Latency.Text)
}

func TestFallbackRecords(t *testing.T) {
	t.Parallel()
	raws := FallbackRecords(now)
	require.Len(t, raws, 2)
	assert.Equal(t, "East US", raws[0].Source)
	assert.Equal(t, "1500", raws[1].Bandwidth.Text)
	assert.Equal(t, "2024-06-30T23:59:00Z", raws[1].Timestamp)
}

type countingSource struct {
	calls atomic.Int32
}

func (c *countingSource) Fetch(context.Context, Query) ([]record.Raw, error) {
	c.calls.Add(1)
	return []record.Raw{{RowKey: "westeurope"}}, nil
}

func TestCached(t *testing.T) {
	t.Parallel()
	inner := &countingSource{}
	c := NewCached(inner, time.Hour)
	q := Query{Since: now.Add(-time.Hour), Limit: 10}

	for i := 0; i < 3; i++ {
		raws, err := c.Fetch(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, raws, 1)
	}
	assert.EqualValues(t, 1, inner.calls.Load())

	_, err := c.Fetch(context.Background(), Query{Since: q.Since, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())

	c.Invalidate()
	_, err = c.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.EqualValues(t, 3, inner.calls.Load())
}

func TestNew(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(now)

	_, err := New(context.Background(), config.SourceConf{Kind: "ftp"}, clock, nil)
	require.ErrorIs(t, err, ErrUnknownKind)

	src, err := New(context.Background(), config.SourceConf{Kind: "synthetic", CacheTTL: time.Minute}, clock, nil)
	require.NoError(t, err)
	raws, err := src.Fetch(context.Background(), QueryFor(config.SourceConf{Lookback: 72 * time.Hour, MaxResults: 100}, now))
	require.NoError(t, err)
	assert.Len(t, raws, 100)
}
