// Package health implements the /api/health endpoint.
//
// A Checker holds named probes, one per upstream dependency. Each request
// runs the probes concurrently, bounds each by the check timeout, and
// reports the process healthy only when every probe succeeds:
//
//	checker := health.New(5*time.Second, "1.0.0")
//	checker.RegisterCheck("geminiApi", func(ctx context.Context) error {
//	    _, err := client.Ping(ctx, apiKey)
//	    return err
//	})
//	mux.Handle("/api/health", checker.Handler())
package health
