package dbscan

import (
	"fmt"
	"strings"
)

// NeighborFinder answers radius queries over one dataset.
//
// RangeQuery returns the index of every point whose squared Euclidean
// distance to point idx is at most epsilon², the query point included, in
// ascending index order. Implementations must agree exactly for the same
// dataset and epsilon.
type NeighborFinder interface {
	// Len returns the number of points the finder was built over.
	Len() int

	// RangeQuery returns the neighbourhood of point idx.
	RangeQuery(idx int, epsilon float64) []int
}

// Algorithm selects a NeighborFinder implementation.
type Algorithm string

const (
	// AlgorithmBrute scans every point for each query.
	AlgorithmBrute Algorithm = "brute"
	// AlgorithmKDTree queries a median-split KD-tree.
	AlgorithmKDTree Algorithm = "kd_tree"
)

// Algorithms lists the accepted selector values.
var Algorithms = []Algorithm{AlgorithmBrute, AlgorithmKDTree}

// ParseAlgorithm maps a selector string onto an Algorithm. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmBrute:
		return AlgorithmBrute, nil
	case AlgorithmKDTree:
		return AlgorithmKDTree, nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q (want %q or %q)",
		ErrInvalidParameter, s, AlgorithmBrute, AlgorithmKDTree)
}

// NewFinder builds the finder selected by algo over ds. workers bounds the
// parallelism of the KD-tree build and is ignored by the brute-force finder.
func NewFinder(algo Algorithm, ds *Dataset, workers int) (NeighborFinder, error) {
	switch algo {
	case AlgorithmBrute:
		return NewBruteForce(ds), nil
	case AlgorithmKDTree:
		return NewKDTree(ds, workers), nil
	}
	return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParameter, string(algo))
}
