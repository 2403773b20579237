package server

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the dashboard routes on r.
func RegisterRoutes(r *mux.Router, h *Handler, rec *metrics.Recorder) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", h.Summary).Methods(http.MethodGet)
	api.HandleFunc("/versions", h.Versions).Methods(http.MethodGet)
	api.HandleFunc("/history", h.History).Methods(http.MethodGet)

	charts := r.PathPrefix("/charts").Subrouter()
	charts.HandleFunc("/pie.png", h.PieChart).Methods(http.MethodGet)
	charts.HandleFunc("/history.png", h.HistoryChart).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", rec.Handler()).Methods(http.MethodGet)

	r.Use(logRequests)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.DebugKV("http request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
