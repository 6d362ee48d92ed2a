// Package health provides liveness and readiness endpoints for the
// eventkeeper daemon.
//
//   - /healthz: the process is running
//   - /readyz: every registered check passes (store ping, run freshness)
//   - /version: build information
//
// Usage:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("store", health.PingCheck(st))
//	checker.RegisterCheck("retention", health.FreshnessCheck(runner.LastSuccess, 48*time.Hour, time.Hour, nil))
//
//	r := chi.NewRouter()
//	checker.Mount(r, version, commit, buildTime)
package health
