package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/dbscan/internal/config"
	"github.com/banshee-data/dbscan/internal/dbscan"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/runstore"
	"github.com/banshee-data/dbscan/internal/timeutil"
)

// Recorder persists completed runs. *runstore.Store satisfies it.
type Recorder interface {
	Insert(run *runstore.Run) error
}

// IsInputError reports whether err was caused by the job itself (malformed
// body, bad parameters, bad points) rather than by the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedRequest) ||
		errors.Is(err, ErrRequestTooLarge) ||
		dbscan.IsInputError(err)
}

// Runner executes jobs against a fixed configuration.
type Runner struct {
	cfg      *config.Config
	recorder Recorder
	clock    timeutil.Clock
	log      *monitoring.Logger
}

// NewRunner returns a Runner using cfg for defaults and limits. A nil cfg
// means built-in defaults. recorder may be nil.
func NewRunner(cfg *config.Config, recorder Recorder) *Runner {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &Runner{
		cfg:      cfg,
		recorder: recorder,
		clock:    timeutil.RealClock{},
		log:      monitoring.NewLogger("job"),
	}
}

// SetClock replaces the clock used to time runs.
func (r *Runner) SetClock(c timeutil.Clock) { r.clock = c }

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config { return r.cfg }

type outcome struct {
	resp *Response
	err  error
}

// Run executes req. The configured request timeout, if any, is applied on
// top of ctx. Clustering itself cannot be interrupted: when ctx ends first
// Run returns ctx.Err() and the computation finishes in the background with
// its result discarded.
func (r *Runner) Run(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrMalformedRequest)
	}
	if timeout := r.cfg.GetRequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan outcome, 1)
	go func() {
		resp, err := r.execute(req)
		done <- outcome{resp: resp, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		r.log.Printf("abandoning job with %d points: %v", len(req.Points), ctx.Err())
		return nil, ctx.Err()
	}
	if out.err != nil {
		return nil, out.err
	}

	resp := out.resp
	if r.recorder != nil {
		r.record(resp)
	}
	r.log.Printf("%s eps=%g minPts=%d points=%d clusters=%d noise=%d took=%v",
		resp.Algorithm, resp.Params.Epsilon, resp.Params.MinPoints,
		resp.Summary.Points, len(resp.Summary.Clusters), resp.Summary.NoiseCount, resp.Duration)
	return resp, nil
}

// execute resolves defaults and runs the engine synchronously.
func (r *Runner) execute(req *Request) (*Response, error) {
	start := r.clock.Now()

	params := dbscan.Params{Epsilon: r.cfg.GetEpsilon(), MinPoints: r.cfg.GetMinPoints()}
	if req.Epsilon != nil {
		params.Epsilon = *req.Epsilon
	}
	if req.MinPoints != nil {
		params.MinPoints = *req.MinPoints
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	algo := r.cfg.GetAlgorithm()
	if req.Algorithm != "" {
		a, err := dbscan.ParseAlgorithm(req.Algorithm)
		if err != nil {
			return nil, err
		}
		algo = a
	}
	shape := r.cfg.GetOutput()
	if req.Output != "" {
		s, err := dbscan.ParseShape(req.Output)
		if err != nil {
			return nil, err
		}
		shape = s
	}
	workers := r.cfg.GetWorkers()
	if req.Workers != nil {
		workers = *req.Workers
	}
	if workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", dbscan.ErrInvalidParameter, workers)
	}

	ds, err := dbscan.NewDataset(req.Coordinates())
	if err != nil {
		return nil, err
	}
	finder, err := dbscan.NewFinder(algo, ds, workers)
	if err != nil {
		return nil, err
	}
	result, err := dbscan.Cluster(ds, params, finder)
	if err != nil {
		return nil, err
	}
	summary, err := dbscan.Summarize(ds, result)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Shape:     shape,
		Algorithm: algo,
		Params:    params,
		Workers:   workers,
		Summary:   summary,
		points:    ds.Points(),
		labels:    result.Labels,
	}
	switch shape {
	case dbscan.ShapeFlat:
		flat := result.Flat()
		resp.Flat = &flat
	case dbscan.ShapePartitioned:
		part, err := result.Partition(ds)
		if err != nil {
			return nil, err
		}
		resp.Partitioned = &part
	}
	resp.Duration = r.clock.Since(start)
	return resp, nil
}

// record stores resp. A failed insert is logged and does not fail the job.
func (r *Runner) record(resp *Response) {
	summaryJSON, err := json.Marshal(resp.Summary)
	if err != nil {
		r.log.Printf("failed to encode summary: %v", err)
	}
	run := &runstore.Run{
		Algorithm:     string(resp.Algorithm),
		Epsilon:       resp.Params.Epsilon,
		MinPoints:     resp.Params.MinPoints,
		Workers:       resp.Workers,
		NumPoints:     resp.Summary.Points,
		Dim:           resp.Summary.Dim,
		Clusters:      len(resp.Summary.Clusters),
		NoiseCount:    resp.Summary.NoiseCount,
		DurationNanos: resp.Duration.Nanoseconds(),
		Points:        resp.points,
		Labels:        resp.labels,
		SummaryJSON:   summaryJSON,
	}
	if err := r.recorder.Insert(run); err != nil {
		r.log.Printf("failed to record run: %v", err)
		return
	}
	resp.RunID = run.RunID
}

// ProcessJSON runs one job encoded as JSON and returns the JSON response.
// Failures are reported in-band as {"error": "..."}.
func (r *Runner) ProcessJSON(ctx context.Context, data []byte) []byte {
	if limit := r.cfg.GetMaxRequestBytes(); int64(len(data)) > limit {
		return EncodeError(fmt.Errorf("%w: body exceeds %d bytes", ErrRequestTooLarge, limit))
	}
	req, err := DecodeBytes(data)
	if err != nil {
		return EncodeError(err)
	}
	resp, err := r.Run(ctx, req)
	if err != nil {
		return EncodeError(err)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return EncodeError(err)
	}
	return out
}
