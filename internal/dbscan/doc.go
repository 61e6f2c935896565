// Package dbscan owns the density-based clustering core.
//
// Responsibilities: the immutable point dataset, radius neighbour search
// (exhaustive scan and KD-tree), the DBSCAN labelling state machine and the
// result shapes handed to callers.
// Key types: Dataset, NeighborFinder, Params, Result.
//
// Dependency rule: this package performs no I/O and does not log. Request
// decoding, persistence and transport live in internal/job, internal/runstore,
// internal/api and internal/rpc.
package dbscan
