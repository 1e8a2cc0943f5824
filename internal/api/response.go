package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON and writes it with the given status code. A
// value that cannot be encoded becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Debug("write response", "err", err)
	}
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return false
	}
	return true
}

type regionsResponse struct {
	Sort    aggregate.SortOrder    `json:"sort"`
	Regions []aggregate.RegionStat `json:"regions"`
}

type seriesResponse struct {
	Granularity aggregate.Granularity `json:"granularity"`
	Series      []aggregate.Series    `json:"series"`
}

type recordsResponse struct {
	Total   int             `json:"total"`
	Records []record.Record `json:"records"`
}

type filtersResponse struct {
	Active        filter.Selection `json:"active"`
	DefaultWindow string           `json:"default_window"`
	Options       filter.Options   `json:"options"`
}
