package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/netbench/internal/aggregate"
	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/dashboard"
	"github.com/gyaneshwarpardhi/netbench/internal/export"
	"github.com/gyaneshwarpardhi/netbench/internal/filter"
	"github.com/gyaneshwarpardhi/netbench/internal/regions"
	"github.com/gyaneshwarpardhi/netbench/internal/render"
)

const maxRecordsLimit = 10000

// Handler holds all HTTP handler dependencies.
type Handler struct {
	state  *dashboard.State
	loader *config.Loader
	log    *slog.Logger
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil,
// in which case config reload is unavailable.
func New(state *dashboard.State, loader *config.Loader, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{state: state, loader: loader, log: log, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/snapshot", h.snapshot)
	h.mux.HandleFunc("GET /v1/summary", h.summary)
	h.mux.HandleFunc("GET /v1/regions", h.regionStats)
	h.mux.HandleFunc("GET /v1/series/regions", h.regionSeries)
	h.mux.HandleFunc("GET /v1/series/pairs", h.pairSeries)
	h.mux.HandleFunc("GET /v1/anomalies", h.anomalies)
	h.mux.HandleFunc("GET /v1/distribution", h.distribution)
	h.mux.HandleFunc("GET /v1/trend", h.trend)
	h.mux.HandleFunc("GET /v1/matrix", h.matrix)
	h.mux.HandleFunc("GET /v1/records", h.records)
	h.mux.HandleFunc("GET /v1/filters", h.getFilters)
	h.mux.HandleFunc("PUT /v1/filters", h.putFilters)
	h.mux.HandleFunc("DELETE /v1/filters", h.resetFilters)
	h.mux.HandleFunc("POST /v1/refresh", h.refresh)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /v1/export.csv", h.exportCSV)
	h.mux.HandleFunc("GET /v1/charts/{name}", h.chart)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.log, h.mux)
}

// GET /v1/snapshot — every view for the request criteria.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state.Snapshot(c))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state.Snapshot(c).Summary)
}

// GET /v1/regions?sort=alphabetical|asc|desc
func (h *Handler) regionStats(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	order, err := aggregate.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view := h.state.View(c)
	writeJSON(w, http.StatusOK, regionsResponse{
		Sort:    order,
		Regions: aggregate.RegionStats(view, regions.DisplayName, order),
	})
}

func (h *Handler) regionSeries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	g := aggregate.GranularityFor(c.Window)
	writeJSON(w, http.StatusOK, seriesResponse{
		Granularity: g,
		Series:      aggregate.RegionSeries(h.state.View(c), g, regions.DisplayName),
	})
}

func (h *Handler) pairSeries(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	g := aggregate.GranularityFor(c.Window)
	writeJSON(w, http.StatusOK, seriesResponse{
		Granularity: g,
		Series:      aggregate.PairSeries(h.state.View(c), g),
	})
}

func (h *Handler) anomalies(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state.Classifier().Detect(h.state.View(c)))
}

func (h *Handler) distribution(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.LatencyDistribution(h.state.View(c)))
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.DailyTrend(h.state.View(c)))
}

func (h *Handler) matrix(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.PairMatrix(h.state.View(c)))
}

// GET /v1/records?limit=N — newest records first.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	limit := dashboard.LatestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRecordsLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxRecordsLimit))
			return
		}
		limit = n
	}
	view := h.state.View(c)
	writeJSON(w, http.StatusOK, recordsResponse{
		Total:   len(view),
		Records: aggregate.Latest(view, limit),
	})
}

// GET /v1/filters — active criteria and the values available to select.
func (h *Handler) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.filtersResponse(h.state.Criteria()))
}

// PUT /v1/filters — replace the active criteria.
func (h *Handler) putFilters(w http.ResponseWriter, r *http.Request) {
	var sel filter.Selection
	if !decodeJSON(w, r, &sel) {
		return
	}
	c, err := sel.Criteria(h.state.DefaultWindow())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.state.SetCriteria(c)
	writeJSON(w, http.StatusOK, h.filtersResponse(c))
}

// DELETE /v1/filters — clear selections and restore the default window.
func (h *Handler) resetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.filtersResponse(h.state.ResetCriteria()))
}

func (h *Handler) filtersResponse(c filter.Criteria) filtersResponse {
	resp := filtersResponse{
		Active:        c.Selection(),
		DefaultWindow: h.state.DefaultWindow().String(),
	}
	if ds := h.state.Dataset(); ds != nil {
		resp.Options = ds.Options
	}
	return resp
}

// POST /v1/refresh — start a refresh; 409 while one is running.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.state.RefreshAsync(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, dashboard.ErrRefreshInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// POST /v1/config/reload — re-read the config file and apply thresholds and
// the default window.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotFound, "config reload is not available")
		return
	}
	cfg, err := h.loader.Reload()
	switch {
	case errors.Is(err, config.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.state.ApplyConfig(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":       true,
		"thresholds":     h.state.Thresholds(),
		"default_window": h.state.DefaultWindow().String(),
	})
}

// GET /v1/export.csv — the filtered view as a CSV attachment.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, h.state.View(c)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(h.state.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GET /v1/charts/{name} — region-latency, region-series or pair-series as PNG.
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.criteria(w, r)
	if !ok {
		return
	}
	view := h.state.View(c)
	g := aggregate.GranularityFor(c.Window)

	var (
		buf bytes.Buffer
		err error
	)
	switch r.PathValue("name") {
	case "region-latency":
		order, perr := aggregate.ParseSortOrder(r.URL.Query().Get("sort"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		err = render.RegionLatencyBars(&buf, aggregate.RegionStats(view, regions.DisplayName, order))
	case "region-series":
		err = render.SeriesChart(&buf, "Latency by Region (μs)", g, aggregate.RegionSeries(view, g, regions.DisplayName))
	case "pair-series":
		err = render.SeriesChart(&buf, "Latency by Zone Pair (μs)", g, aggregate.PairSeries(view, g))
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", r.PathValue("name")))
		return
	}
	switch {
	case errors.Is(err, render.ErrNoData):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GET /healthz — always 200 (liveness).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 until the first dataset is loaded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ds := h.state.Dataset()
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":     "loading",
			"refreshing": h.state.Refreshing(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"records":   len(ds.Records),
		"loaded_at": ds.LoadedAt,
		"fallback":  ds.Fallback,
	})
}

// criteria reads the filter selection from the query string. Without any
// filter parameters the active criteria apply. On error it writes a 400.
func (h *Handler) criteria(w http.ResponseWriter, r *http.Request) (filter.Criteria, bool) {
	q := r.URL.Query()
	sel := filter.Selection{
		Regions:      q["region"],
		Sources:      q["source"],
		Destinations: q["destination"],
		Window:       q.Get("window"),
		Where:        q.Get("where"),
	}
	if sel.Empty() {
		return h.state.Criteria(), true
	}
	c, err := sel.Criteria(h.state.DefaultWindow())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return filter.Criteria{}, false
	}
	return c, true
}
