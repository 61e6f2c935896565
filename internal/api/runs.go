package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/dbscan/internal/httputil"
	"github.com/banshee-data/dbscan/internal/render"
	"github.com/banshee-data/dbscan/internal/runstore"
)

const (
	maxListLimit = 500

	defaultPlotWidth  = 8 * vg.Inch
	defaultPlotHeight = 8 * vg.Inch
)

// requireStore writes 503 and returns false when recording is disabled.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.ServiceUnavailable(w, "run store is not configured")
		return false
	}
	return true
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}

	limit := runstore.DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			httputil.BadRequest(w,
				fmt.Sprintf("Invalid 'limit' parameter (1-%d)", maxListLimit))
			return
		}
		limit = parsed
	}

	runs, err := s.store.List(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		run, ok := s.loadRun(w, id)
		if !ok {
			return
		}
		httputil.WriteJSONOK(w, run)
	case http.MethodDelete:
		if err := s.store.Delete(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) showRunChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	run, ok := s.loadRun(w, r.PathValue("id"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.chartFor(run).HTML(&buf, run.Points, run.Labels); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) showRunPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireStore(w) {
		return
	}
	run, ok := s.loadRun(w, r.PathValue("id"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.chartFor(run).PNG(&buf, run.Points, run.Labels, defaultPlotWidth, defaultPlotHeight); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) chartFor(run *runstore.Run) render.Chart {
	return render.Chart{
		Title: "DBSCAN run " + run.RunID,
		Subtitle: fmt.Sprintf("%s eps=%g minPts=%d points=%d clusters=%d noise=%d",
			run.Algorithm, run.Epsilon, run.MinPoints, run.NumPoints, run.Clusters, run.NoiseCount),
		MaxPoints: s.cfg.GetMaxPlotPoints(),
	}
}

func (s *Server) loadRun(w http.ResponseWriter, id string) (*runstore.Run, bool) {
	run, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	return run, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, runstore.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}
