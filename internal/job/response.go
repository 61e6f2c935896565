package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/dbscan/internal/dbscan"
)

// Response is the outcome of one job. Only the selected output shape is
// serialised; the summary and run metadata travel out of band (HTTP headers,
// gRPC metadata, the run store).
type Response struct {
	Shape       dbscan.Shape
	Flat        *dbscan.Flat
	Partitioned *dbscan.Partitioned

	Algorithm dbscan.Algorithm
	Params    dbscan.Params
	Workers   int
	Summary   dbscan.Summary
	Duration  time.Duration
	RunID     string // set when the run was recorded

	points [][]float64
	labels []int
}

// Labels returns the per-point labels whichever shape was selected.
func (r *Response) Labels() []int {
	return r.labels
}

// MarshalJSON implements json.Marshaler.
func (r *Response) MarshalJSON() ([]byte, error) {
	switch r.Shape {
	case dbscan.ShapeFlat:
		if r.Flat == nil {
			return nil, fmt.Errorf("flat response has no labels")
		}
		return json.Marshal(r.Flat)
	case dbscan.ShapePartitioned:
		if r.Partitioned == nil {
			return nil, fmt.Errorf("partitioned response has no groups")
		}
		return json.Marshal(r.Partitioned)
	}
	return nil, fmt.Errorf("response has unknown shape %q", r.Shape)
}

// UnmarshalJSON implements json.Unmarshaler. The shape is inferred from the
// keys present: "labels" for flat, "Noise"/"Clusters" for partitioned.
func (r *Response) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["labels"]; ok {
		var f dbscan.Flat
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*r = Response{Shape: dbscan.ShapeFlat, Flat: &f, labels: f.Labels}
		return nil
	}
	_, hasNoise := keys["Noise"]
	_, hasClusters := keys["Clusters"]
	if hasNoise || hasClusters {
		var p dbscan.Partitioned
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = Response{Shape: dbscan.ShapePartitioned, Partitioned: &p}
		return nil
	}
	if msg, ok := keys["error"]; ok {
		var s string
		_ = json.Unmarshal(msg, &s)
		return fmt.Errorf("job failed: %s", s)
	}
	return fmt.Errorf("response has neither labels nor Noise/Clusters")
}

// errorBody is the JSON form of a failed job.
type errorBody struct {
	Error string `json:"error"`
}

// EncodeError renders err as {"error": "..."}.
func EncodeError(err error) []byte {
	b, mErr := json.Marshal(errorBody{Error: err.Error()})
	if mErr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return b
}
