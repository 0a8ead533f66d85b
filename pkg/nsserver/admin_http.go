package nsserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/pkg/catalog"
)

// NewAdminRouter builds the NS's side-channel HTTP surface: /healthz for
// liveness/readiness probes and /metrics for Prometheus scraping. This runs
// on its own listener, separate from the line-protocol TCP port clients and
// storage servers dial. Grounded on the teacher's pkg/api/router.go —
// middleware stack and request logging kept, routes narrowed to this
// service's own admin surface.
func NewAdminRouter(cat *catalog.Catalog) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", healthzHandler(cat))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Users     int       `json:"users"`
	Files     int       `json:"files"`
	Servers   int       `json:"storage_servers"`
}

func healthzHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Users:     len(cat.ListUsernames()),
			Files:     len(cat.AllFiles()),
			Servers:   cat.ServerCount(),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("failed to encode admin response", "error", err)
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("ns admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
