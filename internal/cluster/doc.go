// Package cluster implements a generic k-means centroid finder.
//
// The algorithm is parameterized over the clustered type: callers supply
// a distance function and a mean function and get back k representative
// centroids. The palette code clusters perceptual Lab colors, but the
// package works for any value type with a metric-like distance (the
// tests cluster plain float64 values).
//
// # Determinism
//
// Initial centroids are sampled at random; a Finder carries an explicit
// *rand.Rand so tests can seed it. Assignment ties are always broken by
// the first-encountered centroid, so a seeded run is fully reproducible.
//
// # Concurrency
//
// The assignment step is embarrassingly parallel. Above a configurable
// item-count threshold it is fanned out over contiguous chunks to a
// bounded set of workers, each filling private per-cluster buckets; the
// partial buckets are merged only after every worker has finished. There
// is no shared mutable state and no locking. The mean function must be
// order-independent since the merge order of partial buckets is not
// specified.
package cluster
