package cluster

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// Defaults for a Finder constructed with NewFinder.
const (
	// DefaultConvergeEpsilon is the tight convergence threshold: iteration
	// stops once every centroid moved less than this between rounds.
	DefaultConvergeEpsilon = 0.05

	// DefaultRelaxedEpsilon is the "good enough" threshold tried once the
	// iteration cap is exhausted, before giving up.
	DefaultRelaxedEpsilon = 0.8

	// DefaultMaxIterations bounds the number of assign/recompute rounds.
	DefaultMaxIterations = 120

	// DefaultParallelThreshold is the item count above which the
	// assignment step runs on multiple workers.
	DefaultParallelThreshold = 50
)

// ErrInputEmpty is returned when there are no items to cluster.
var ErrInputEmpty = errors.New("cluster: input is empty")

// ErrTooManyIterations is returned when the centroids fail to converge
// within the iteration cap, even against the relaxed threshold.
var ErrTooManyIterations = errors.New("cluster: centroids did not converge within the iteration limit")

// TooManyCentroidsError is returned when more centroids are requested
// than there are items to cluster.
type TooManyCentroidsError struct {
	Expected int // requested number of centroids
	Actual   int // number of items available
}

func (e *TooManyCentroidsError) Error() string {
	return fmt.Sprintf("cluster: requested %d centroids from %d items", e.Expected, e.Actual)
}

// DistanceFunc computes the distance between two values. It must be
// non-negative, symmetric and zero only for equal inputs.
type DistanceFunc[T any] func(a, b T) float64

// MeanFunc computes the representative mean of a non-empty set of
// values. It must be order-independent.
type MeanFunc[T any] func(items []T) T

// Finder runs k-means clustering over values of type T.
//
// A Finder owns no state between calls; the same Finder may be reused for
// several FindCentroids runs (though not concurrently when Rand is set,
// as *rand.Rand is not safe for concurrent use).
type Finder[T any] struct {
	// Distance and Mean define the geometry of the clustered type.
	// Both are required.
	Distance DistanceFunc[T]
	Mean     MeanFunc[T]

	// Rand is the source used to sample the initial centroids. When nil,
	// a time-seeded source is created per call. Tests inject a fixed seed
	// here for reproducible runs.
	Rand *rand.Rand

	// Logger receives per-iteration convergence traces at Debug level.
	// When nil, slog.Default() is used.
	Logger *slog.Logger

	// ConvergeEpsilon and RelaxedEpsilon are the tight and fallback
	// convergence thresholds. MaxIterations caps the number of rounds;
	// values <= 0 fall back to DefaultMaxIterations.
	ConvergeEpsilon float64
	RelaxedEpsilon  float64
	MaxIterations   int

	// ParallelThreshold is the minimum item count for parallel
	// assignment; Workers bounds the worker pool (<= 0 means NumCPU).
	ParallelThreshold int
	Workers           int
}

// NewFinder returns a Finder with the default thresholds, iteration cap
// and parallelism settings.
func NewFinder[T any](distance DistanceFunc[T], mean MeanFunc[T]) *Finder[T] {
	return &Finder[T]{
		Distance:          distance,
		Mean:              mean,
		ConvergeEpsilon:   DefaultConvergeEpsilon,
		RelaxedEpsilon:    DefaultRelaxedEpsilon,
		MaxIterations:     DefaultMaxIterations,
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// FindCentroids is a convenience wrapper running a default Finder once.
func FindCentroids[T any](items []T, k int, distance DistanceFunc[T], mean MeanFunc[T]) ([]T, error) {
	return NewFinder(distance, mean).FindCentroids(items, k)
}

// FindCentroids clusters items into k centroids.
//
// Failure modes:
//   - no items: ErrInputEmpty
//   - k greater than the item count: *TooManyCentroidsError
//   - no convergence within the cap, even relaxed: ErrTooManyIterations
//
// When k equals the item count every item is its own centroid and the
// input is returned unchanged (copied). A cluster that receives no
// members during an iteration retains its previous centroid for that
// round; Mean is never called with an empty set.
func (f *Finder[T]) FindCentroids(items []T, k int) ([]T, error) {
	if err := validateInput(items, k); err != nil {
		return nil, err
	}

	if len(items) == k {
		out := make([]T, k)
		copy(out, items)
		return out, nil
	}

	rng := f.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxIterations := f.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	centroids := f.initialCentroids(items, k, rng)

	for iteration := 1; ; iteration++ {
		buckets := f.assign(items, centroids)

		last := centroids
		centroids = f.recompute(buckets, last)

		if f.converged(last, centroids, f.ConvergeEpsilon, logger) {
			logger.Debug("centroids converged", "iterations", iteration)
			break
		}

		if iteration > maxIterations {
			// Out of iterations; accept the solution if it clears the
			// relaxed threshold.
			if f.converged(last, centroids, f.RelaxedEpsilon, logger) {
				logger.Debug("centroids converged against relaxed threshold", "iterations", iteration)
				break
			}
			return nil, ErrTooManyIterations
		}
	}

	return centroids, nil
}

func validateInput[T any](items []T, k int) error {
	if len(items) == 0 {
		return ErrInputEmpty
	}
	if k < 1 {
		return fmt.Errorf("cluster: centroid count must be positive, got %d", k)
	}
	if len(items) < k {
		return &TooManyCentroidsError{Expected: k, Actual: len(items)}
	}
	return nil
}

// initialCentroids samples k distinct items uniformly without
// replacement. Item values may still repeat when the input contains
// duplicates.
func (f *Finder[T]) initialCentroids(items []T, k int, rng *rand.Rand) []T {
	perm := rng.Perm(len(items))
	centroids := make([]T, k)
	for i := 0; i < k; i++ {
		centroids[i] = items[perm[i]]
	}
	return centroids
}

// nearestIndex returns the index of the centroid closest to item. Ties
// are broken by the first-encountered minimum, in centroid order.
func (f *Finder[T]) nearestIndex(item T, centroids []T) int {
	best := 0
	bestDist := f.Distance(item, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := f.Distance(item, centroids[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// assign partitions items into one bucket per centroid, choosing
// sequential or parallel execution based on input size.
func (f *Finder[T]) assign(items []T, centroids []T) [][]T {
	threshold := f.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	workers := f.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if len(items) <= threshold || workers < 2 {
		return f.assignChunk(items, centroids)
	}
	return f.assignParallel(items, centroids, workers)
}

// assignChunk assigns a contiguous slice of items to buckets. It is the
// unit of work for both the sequential path and each parallel worker.
func (f *Finder[T]) assignChunk(items []T, centroids []T) [][]T {
	buckets := make([][]T, len(centroids))
	for _, item := range items {
		idx := f.nearestIndex(item, centroids)
		buckets[idx] = append(buckets[idx], item)
	}
	return buckets
}

// assignParallel fans the assignment out over contiguous chunks, one per
// worker, and merges the private partial buckets after the join barrier.
// Centroids are only read, partial buckets are worker-private, so no
// locking is needed.
func (f *Finder[T]) assignParallel(items []T, centroids []T, workers int) [][]T {
	if workers > len(items) {
		workers = len(items)
	}
	chunkLen := len(items) / workers

	partials := make([][][]T, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		from := w * chunkLen
		to := from + chunkLen
		if w == workers-1 {
			to = len(items)
		}

		wg.Add(1)
		go func(w int, chunk []T) {
			defer wg.Done()
			partials[w] = f.assignChunk(chunk, centroids)
		}(w, items[from:to])
	}
	wg.Wait()

	buckets := make([][]T, len(centroids))
	for _, partial := range partials {
		for i, bucket := range partial {
			buckets[i] = append(buckets[i], bucket...)
		}
	}
	return buckets
}

// recompute derives the next centroid set from the buckets. Empty
// buckets keep their previous centroid so the result always has exactly
// len(last) entries.
func (f *Finder[T]) recompute(buckets [][]T, last []T) []T {
	centroids := make([]T, len(buckets))
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			centroids[i] = last[i]
			continue
		}
		centroids[i] = f.Mean(bucket)
	}
	return centroids
}

// converged reports whether every centroid moved less than epsilon since
// the previous iteration.
func (f *Finder[T]) converged(last, recent []T, epsilon float64, logger *slog.Logger) bool {
	all := true
	distances := make([]float64, len(last))
	for i := range last {
		distances[i] = f.Distance(last[i], recent[i])
		if distances[i] >= epsilon {
			all = false
		}
	}
	logger.Debug("centroid movement", "distances", distances, "epsilon", epsilon)
	return all
}
