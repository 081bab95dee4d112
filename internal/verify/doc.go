// Package verify pairs forecast tracks with their verifying tracks and
// computes per-point errors and event filters over the aligned points.
//
// A Pair owns its working state. Filters only ever clear a point's Keep
// flag, so they can be applied in any order, and KeepSubset rebuilds a new
// Pair from the raw rows behind the points that survived.
package verify
