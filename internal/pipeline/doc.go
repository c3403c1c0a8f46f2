// Package pipeline runs a single forward pass over a coordinate-sorted
// alignment source and fans records out to a set of consumers.
//
// Records are paired with their reference window, packed into fixed-size
// batches and each full batch is handed to a worker goroutine. Records inside
// a batch reach every consumer in input order; batches may run concurrently
// and finish in any order. The last, partially filled batch is processed on
// the calling goroutine before the outstanding workers are awaited and the
// consumers are finalized.
//
// Consumers must therefore tolerate concurrent ProcessOne calls from
// different batches. Wrap a consumer with Serialized, or set
// Config.MaxInFlight to 1, when that is not possible.
package pipeline
