package dbscan

import (
	"fmt"
	"math"
)

// Label values. Cluster ids are positive and contiguous from 1.
const (
	// Noise labels a point that is neither core nor within epsilon of a core point.
	Noise = -1

	// unassigned marks a point no cluster has reached yet. It never survives
	// into a Result.
	unassigned = 0
)

// Params holds the two DBSCAN parameters.
type Params struct {
	Epsilon   float64 // Neighbourhood radius, boundary inclusive
	MinPoints int     // Neighbourhood size, self included, that makes a point core
}

// Validate checks that epsilon is finite and positive and minPoints positive.
func (p Params) Validate() error {
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 1) {
		return fmt.Errorf("%w: epsilon must be a positive finite number, got %v", ErrInvalidParameter, p.Epsilon)
	}
	if p.MinPoints <= 0 {
		return fmt.Errorf("%w: min_points must be positive, got %d", ErrInvalidParameter, p.MinPoints)
	}
	return nil
}

// Result is the finished label assignment of one run.
type Result struct {
	Labels   []int // One per input point: Noise or 1..Clusters
	Clusters int   // Highest cluster id assigned (0 if none)
}

// workingSet is the mutable state of one run. It is owned by a single
// Cluster call and discarded when the call returns.
type workingSet struct {
	finder  NeighborFinder
	params  Params
	visited []bool
	labels  []int // 0=unassigned, -1=noise, >0=clusterID
	seeds   []int // FIFO expansion queue for the current cluster
}

// Cluster runs DBSCAN over ds, querying finder for neighbourhoods.
//
// Points are visited in input order. A core point opens the next cluster id
// and the cluster grows breadth-first through a FIFO seed queue; each
// neighbourhood is consumed in ascending index order. A point keeps the
// first cluster that reaches it: clusters are never merged and a member
// never returns to noise.
//
// All validation happens before traversal; a run either returns a complete
// labelling or an error.
func Cluster(ds *Dataset, params Params, finder NeighborFinder) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if finder == nil {
		return nil, fmt.Errorf("%w: nil neighbor finder", ErrInvalidParameter)
	}
	if finder.Len() != ds.Len() {
		return nil, fmt.Errorf("%w: finder covers %d points, dataset has %d",
			ErrInvalidParameter, finder.Len(), ds.Len())
	}

	n := ds.Len()
	ws := &workingSet{
		finder:  finder,
		params:  params,
		visited: make([]bool, n),
		labels:  make([]int, n),
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if ws.visited[i] {
			continue
		}
		ws.visited[i] = true

		neighbors := finder.RangeQuery(i, params.Epsilon)
		if len(neighbors) < params.MinPoints {
			ws.labels[i] = Noise
			continue
		}

		clusterID++
		ws.expandCluster(i, neighbors, clusterID)
	}

	return &Result{Labels: ws.labels, Clusters: clusterID}, nil
}

// expandCluster grows clusterID from core point seedIdx until the seed
// queue drains.
func (ws *workingSet) expandCluster(seedIdx int, neighbors []int, clusterID int) {
	ws.labels[seedIdx] = clusterID
	ws.seeds = ws.seeds[:0]
	ws.claim(neighbors, clusterID)

	for head := 0; head < len(ws.seeds); head++ {
		q := ws.seeds[head]
		if ws.visited[q] {
			continue
		}
		ws.visited[q] = true

		qNeighbors := ws.finder.RangeQuery(q, ws.params.Epsilon)
		if len(qNeighbors) >= ws.params.MinPoints {
			// q is core: its neighbourhood joins the cluster too.
			ws.claim(qNeighbors, clusterID)
		}
	}
}

// claim assigns clusterID to every neighbour no cluster holds yet and
// reclaims noise as border points. Only newly assigned points are queued:
// noise has already been visited and found not to be core, and points held
// by an earlier cluster stay where they are.
func (ws *workingSet) claim(neighbors []int, clusterID int) {
	for _, j := range neighbors {
		switch ws.labels[j] {
		case unassigned:
			ws.labels[j] = clusterID
			ws.seeds = append(ws.seeds, j)
		case Noise:
			ws.labels[j] = clusterID
		}
	}
}
