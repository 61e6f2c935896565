// Package api serves clustering jobs and stored runs over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/httputil"
	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/runstore"
	"github.com/banshee-data/dbscan/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Response headers carrying run metadata that is not part of the job output.
const (
	HeaderRunID      = "X-Dbscan-Run-Id"
	HeaderAlgorithm  = "X-Dbscan-Algorithm"
	HeaderClusters   = "X-Dbscan-Clusters"
	HeaderNoiseCount = "X-Dbscan-Noise"
	HeaderDuration   = "X-Dbscan-Duration"
)

type Server struct {
	runner *job.Runner
	cfg    *config.Config
	store  *runstore.Store // nil when run recording is disabled
	log    *monitoring.Logger
}

// NewServer returns a Server executing jobs with runner. store may be nil,
// in which case the /api/runs endpoints answer 503.
func NewServer(runner *job.Runner, store *runstore.Store) *Server {
	return &Server{
		runner: runner,
		cfg:    runner.Config(),
		store:  store,
		log:    monitoring.NewLogger("api"),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cluster", s.handleCluster)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleRunByID)
	mux.HandleFunc("/api/runs/{id}/chart", s.showRunChart)
	mux.HandleFunc("/api/runs/{id}/plot.png", s.showRunPlot)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	return mux
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.cfg.Effective())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
