// Package health reports whether a simulation session can keep answering
// queries.
//
// A Checker reports one component's Status: Healthy, Degraded, or
// Unhealthy. CapacityChecker watches how much of the slice id space a
// session has used and whether it has latched a fatal failure;
// MemoryChecker watches heap usage, since every canonical slice and memo
// entry lives for the lifetime of its session.
//
// # Aggregating Health Checks
//
//	agg := health.NewAggregator()
//	agg.Register("capacity", health.NewCapacityChecker(sess, health.CapacityCheckerConfig{}))
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness over every check),
// /health (JSON detail), and /health/{name} (one check).
package health
