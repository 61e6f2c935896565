package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformedRequest reports a body that is not a valid job document.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrRequestTooLarge reports a body over the configured size limit.
	ErrRequestTooLarge = errors.New("request too large")
)

// Request is one clustering job. Optional fields fall back to the runner's
// configuration.
type Request struct {
	Points    []Point  `json:"points"`
	Epsilon   *float64 `json:"epsilon,omitempty"`
	MinPoints *int     `json:"min_points,omitempty"`
	Algorithm string   `json:"algorithm,omitempty"` // "brute" or "kd_tree"
	Workers   *int     `json:"workers,omitempty"`
	Output    string   `json:"output,omitempty"` // "flat" or "partitioned"
}

// Point is one coordinate tuple. It decodes from a JSON array
// ([1.5, 2, 3]), from an object holding a "vec" array ({"vec": [1.5, 2]}),
// or from an object with "X", "Y" and optional "Z" keys ({"X": 1, "Y": 2}).
// Object keys match case-insensitively.
type Point []float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty point")
	}

	switch data[0] {
	case '[':
		var coords []float64
		if err := json.Unmarshal(data, &coords); err != nil {
			return fmt.Errorf("point coordinates: %w", err)
		}
		*p = coords
		return nil
	case '{':
		return p.unmarshalObject(data)
	}
	return fmt.Errorf("point must be an array or an object, got %s", truncate(data, 32))
}

func (p *Point) unmarshalObject(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("point object: %w", err)
	}
	lower := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(k)] = v
	}

	if raw, ok := lower["vec"]; ok {
		var coords []float64
		if err := json.Unmarshal(raw, &coords); err != nil {
			return fmt.Errorf("point vec: %w", err)
		}
		*p = coords
		return nil
	}

	var coords []float64
	for _, axis := range []string{"x", "y", "z"} {
		raw, ok := lower[axis]
		if !ok {
			break
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("point %s: %w", strings.ToUpper(axis), err)
		}
		coords = append(coords, v)
	}
	if len(coords) == 0 {
		return fmt.Errorf("point object needs a vec array or X/Y/Z keys")
	}
	if len(coords) < len(lower) {
		// e.g. {"X": 1, "Z": 3}: Z without Y cannot be placed.
		for k := range lower {
			if k != "x" && k != "y" && k != "z" {
				return fmt.Errorf("point object has unknown key %q", k)
			}
		}
		return fmt.Errorf("point object axes must be contiguous from X")
	}
	*p = coords
	return nil
}

// Coordinates converts the request points for dbscan.NewDataset.
func (r *Request) Coordinates() [][]float64 {
	out := make([][]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p
	}
	return out
}

// Decode reads one Request from r. Bodies over maxBytes fail with
// ErrRequestTooLarge; anything that is not a single JSON job document fails
// with ErrMalformedRequest.
func Decode(r io.Reader, maxBytes int64) (*Request, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrRequestTooLarge, maxBytes)
	}
	return DecodeBytes(data)
}

// DecodeBytes parses one Request from data.
func DecodeBytes(data []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after job document", ErrMalformedRequest)
	}
	return &req, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
