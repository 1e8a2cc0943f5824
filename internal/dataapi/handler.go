// Package dataapi serves raw benchmark records to the dashboard from a Lambda
// function behind an API Gateway HTTP API.
package dataapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/record"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

const (
	DefaultMaxResults = 200000
	DefaultLookback   = 30 * 24 * time.Hour
)

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// Handler answers GET requests with a JSON array of raw records. Clients may
// narrow the request with since (RFC 3339) and limit query parameters; limit
// never exceeds MaxResults.
type Handler struct {
	Source     source.Source
	Clock      clockwork.Clock
	Log        *slog.Logger
	MaxResults int
	Lookback   time.Duration
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch req.RequestContext.HTTP.Method {
	case http.MethodOptions:
		return respond(http.StatusNoContent, ""), nil
	case http.MethodGet, "":
	default:
		return respond(http.StatusMethodNotAllowed, `{"error":"method not allowed"}`), nil
	}

	now := h.clock().Now()
	q := h.query(req.QueryStringParameters, now)
	raws, err := h.Source.Fetch(ctx, q)
	if err != nil {
		h.log().Error("dataapi: fetch failed, serving fallback records", "error", err)
		raws = source.FallbackRecords(now)
	}
	if raws == nil {
		raws = []record.Raw{}
	}
	body, err := json.Marshal(raws)
	if err != nil {
		return respond(http.StatusInternalServerError, `{"error":"encode records"}`), nil
	}
	h.log().Info("dataapi: served records", "records", len(raws), "since", q.Since, "limit", q.Limit)
	return respond(http.StatusOK, string(body)), nil
}

func (h *Handler) query(params map[string]string, now time.Time) source.Query {
	maxResults := h.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	lookback := h.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	q := source.Query{Since: now.Add(-lookback), Limit: maxResults}
	if v, ok := params["limit"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < maxResults {
			q.Limit = n
		}
	}
	if v, ok := params["since"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil && t.After(q.Since) {
			q.Since = t
		}
	}
	return q
}

func (h *Handler) clock() clockwork.Clock {
	if h.Clock == nil {
		return clockwork.NewRealClock()
	}
	return h.Clock
}

func (h *Handler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func respond(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    corsHeaders,
		Body:       body,
	}
}
