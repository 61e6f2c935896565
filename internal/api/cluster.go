package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/banshee-data/dbscan/internal/httputil"
	"github.com/banshee-data/dbscan/internal/job"
)

// statusForError maps a job failure onto an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, job.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case job.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	req, err := job.Decode(r.Body, s.cfg.GetMaxRequestBytes())
	if err != nil {
		httputil.WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	resp, err := s.runner.Run(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		if status >= 500 {
			s.log.Printf("cluster job failed: %v", err)
		}
		httputil.WriteJSONError(w, status, err.Error())
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		httputil.InternalServerError(w, "Failed to encode response")
		return
	}

	h := w.Header()
	if resp.RunID != "" {
		h.Set(HeaderRunID, resp.RunID)
	}
	h.Set(HeaderAlgorithm, string(resp.Algorithm))
	h.Set(HeaderClusters, strconv.Itoa(len(resp.Summary.Clusters)))
	h.Set(HeaderNoiseCount, strconv.Itoa(resp.Summary.NoiseCount))
	h.Set(HeaderDuration, resp.Duration.String())
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
