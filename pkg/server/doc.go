// Package server provides the operational HTTP server of eventkeeper.
//
// The server exposes Prometheus metrics and the health endpoints of the
// retention engine. It never serves event data.
//
// # Routes
//
//	GET /metrics   Prometheus exposition (path configurable, optional)
//	GET /healthz   liveness
//	GET /readyz    readiness (store ping, retention freshness)
//	GET /version   build information
//
// # Middleware
//
// Requests pass through, from outermost to innermost: recovery, request ID,
// then request logging. The request ID is taken from X-Request-ID when the
// client sends one.
//
// # Usage
//
//	router := server.NewRouter(server.Routes{
//	    Metrics:     collector.Handler(),
//	    MetricsPath: "/metrics",
//	    Health:      checker,
//	    Version:     version,
//	})
//	srv := server.New(cfg.Server, router, logger)
//	if err := srv.Start(ctx); err != nil { // blocks until ctx is cancelled
//	    return err
//	}
package server
