// Package observe provides observability primitives for space-time queries.
//
// It is a pure instrumentation library: no simulation, no transport, no I/O
// beyond exporter setup. A session wraps each query in Middleware, which
// opens an eca.<op> span, records query counters and durations, and writes
// one structured log line.
package observe
