// Package limits publishes rate limiter state on a schedule.
//
// The limiter itself lives in the ratelimit sub-package. The Reporter here
// runs a cron job that samples the number of open windows and hands it to a
// Sink, normally the Prometheus collector, so operators can see how many
// distinct clients are active without scraping the counter store.
//
// # Usage
//
//	reporter := limits.NewReporter(limiter, collector, "@every 1m", logger)
//	if err := reporter.Start(ctx); err != nil {
//	    return err
//	}
//	defer reporter.Stop()
package limits
