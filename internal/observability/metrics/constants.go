// Package metrics provides constants used across metric definitions.
package metrics

// Answer result label values.
const (
	// ResultHit is recorded when an answer is served from the cache.
	ResultHit = "hit"
	// ResultMiss is recorded when an answer required an upstream call.
	ResultMiss = "miss"
	// ResultShared is recorded when a caller joined an in-flight upstream call.
	ResultShared = "shared"
	// ResultError is recorded when the answer could not be produced.
	ResultError = "error"
)

// Upstream status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart100B is the starting bucket for 100 byte histograms (100B to ~100MB range).
	BucketStart100B = 100.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketFactor10 is the exponential growth factor of 10 for larger ranges.
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
)
