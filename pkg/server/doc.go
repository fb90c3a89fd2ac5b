// Package server assembles the image proxy's HTTP surface.
//
// It mounts the routes, wraps them in the middleware chain and manages the
// listener lifecycle, including graceful shutdown on SIGINT and SIGTERM.
//
// # Routes
//
//	POST /api/gemini   edit or generate an image (rate limited)
//	GET  /api/health   upstream reachability report
//	GET  /api/config   features and limits
//	POST /api/config   live credential check
//	GET  /metrics      Prometheus metrics, when enabled
//
// Any other path answers 404 in the error envelope.
//
// # Basic Usage
//
//	srv := server.NewServer(cfg, server.Dependencies{
//	    Client:  client,
//	    Limiter: limiter,
//	    Health:  checker,
//	    Metrics: collector,
//	    Logger:  logger.Slog(),
//	    APIKey:  func() string { return config.GetConfig().Gemini.APIKey },
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Handler returns the fully wrapped handler without binding a socket, which
// is what tests use.
package server
