package dataapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	raws []record.Raw
	err  error
	last source.Query
}

func (f *fakeSource) Fetch(_ context.Context, q source.Query) ([]record.Raw, error) {
	f.last = q
	return f.raws, f.err
}

func request(method string, params map[string]string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{QueryStringParameters: params}
	req.RequestContext.HTTP.Method = method
	return req
}

func TestHandleServesRecords(t *testing.T) {
	src := &fakeSource{raws: []record.Raw{{PartitionKey: "p", RowKey: "westeurope", Latency: record.Number(12)}}}
	h := &Handler{Source: src, Clock: clockwork.NewFakeClockAt(now), MaxResults: 500}

	resp, err := h.Handle(context.Background(), request(http.MethodGet, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, now.Add(-DefaultLookback), src.last.Since)
	assert.Equal(t, 500, src.last.Limit)

	var got []record.Raw
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 12.0, got[0].Latency.Number)
}

func TestHandleQueryParameters(t *testing.T) {
	src := &fakeSource{}
	h := &Handler{Source: src, Clock: clockwork.NewFakeClockAt(now), MaxResults: 500}

	tests := []struct {
		name      string
		params    map[string]string
		wantSince time.Time
		wantLimit int
	}{
		{"narrower", map[string]string{"since": "2024-06-29T00:00:00Z", "limit": "10"}, time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC), 10},
		{"limit above max", map[string]string{"limit": "9999"}, now.Add(-DefaultLookback), 500},
		{"since before lookback", map[string]string{"since": "2020-01-01T00:00:00Z"}, now.Add(-DefaultLookback), 500},
		{"garbage", map[string]string{"since": "yesterday", "limit": "-3"}, now.Add(-DefaultLookback), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), request(http.MethodGet, tt.params))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "[]", resp.Body)
			assert.Equal(t, tt.wantSince, src.last.Since)
			assert.Equal(t, tt.wantLimit, src.last.Limit)
		})
	}
}

func TestHandleFallback(t *testing.T) {
	h := &Handler{Source: &fakeSource{err: errors.New("ResourceNotFoundException")}, Clock: clockwork.NewFakeClockAt(now)}

	resp, err := h.Handle(context.Background(), request(http.MethodGet, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []record.Raw
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
	assert.Equal(t, source.FallbackRecords(now), got)
}

func TestHandleMethods(t *testing.T) {
	h := &Handler{Source: &fakeSource{}}

	resp, err := h.Handle(context.Background(), request(http.MethodOptions, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])

	resp, err = h.Handle(context.Background(), request(http.MethodDelete, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
