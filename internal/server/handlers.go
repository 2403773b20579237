package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/knotwatch/internal/backfill"
	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/render"
)

// Handler serves the dashboard state over HTTP.
type Handler struct {
	Dash   *dashboard.Dashboard
	Marker string
	Rows   int
}

func NewHandler(d *dashboard.Dashboard, marker string, rows int) *Handler {
	return &Handler{Dash: d, Marker: marker, Rows: rows}
}

// Summary returns the marker split and the top versions.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	st := h.Dash.Summary()
	if !ready(w, st.Kind, st.Err) {
		return
	}
	writeJSON(w, http.StatusOK, render.NewSummaryView(st.Data, h.Rows))
}

// Versions returns the ranked versions, limited by ?limit=N.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	limit := h.Rows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	st := h.Dash.Summary()
	if !ready(w, st.Kind, st.Err) {
		return
	}
	writeJSON(w, http.StatusOK, render.VersionRows(st.Data, limit))
}

// History returns the historical series, ascending.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	st := h.Dash.History()
	if !ready(w, st.Kind, st.Err) {
		return
	}
	pts := st.Data
	if pts == nil {
		pts = []backfill.Point{}
	}
	writeJSON(w, http.StatusOK, pts)
}

func (h *Handler) PieChart(w http.ResponseWriter, r *http.Request) {
	st := h.Dash.Summary()
	if !ready(w, st.Kind, st.Err) {
		return
	}
	var buf bytes.Buffer
	writePNG(w, &buf, render.PieChart(&buf, st.Data))
}

func (h *Handler) HistoryChart(w http.ResponseWriter, r *http.Request) {
	st := h.Dash.History()
	if !ready(w, st.Kind, st.Err) {
		return
	}
	var buf bytes.Buffer
	writePNG(w, &buf, render.HistoryChart(&buf, st.Data, h.Marker))
}

// Health always answers 200 and reports each pipeline's state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"snapshot": h.Dash.Summary().Kind.String(),
		"history":  h.Dash.History().Kind.String(),
	})
}

// ready writes a 503 for any pipeline that has not produced data.
func ready(w http.ResponseWriter, kind dashboard.Kind, err error) bool {
	if kind == dashboard.Ready {
		return true
	}
	body := map[string]string{"status": kind.String()}
	if kind == dashboard.Idle {
		body["status"] = dashboard.Loading.String()
	}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, body)
	return false
}

func writePNG(w http.ResponseWriter, buf *bytes.Buffer, err error) {
	switch {
	case errors.Is(err, render.ErrNoData):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		logger.Debug("chart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chart rendering failed"})
	default:
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("encode response: %v", err)
	}
}
