package limits

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Source reports the number of open rate limit windows.
type Source interface {
	Live(ctx context.Context) (int, error)
}

// Sink receives sampled window counts.
type Sink interface {
	SetLiveBuckets(n int)
}

// Reporter samples a Source on a cron schedule and publishes to a Sink.
type Reporter struct {
	source   Source
	sink     Sink
	schedule string
	timeout  time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewReporter creates a reporter. An empty schedule disables it.
func NewReporter(source Source, sink Sink, schedule string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		source:   source,
		sink:     sink,
		schedule: schedule,
		timeout:  5 * time.Second,
		cron:     cron.New(),
		logger:   logger.With("component", "limits.reporter"),
	}
}

// Start schedules the report job. It returns an error for an invalid
// schedule and stops the job when ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("report schedule not configured, skipping reporter")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.Report(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule report: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("rate limit reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Report samples the source once and publishes the result.
func (r *Reporter) Report(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.source.Live(ctx)
	if err != nil {
		r.logger.Warn("failed to sample rate limit windows", "error", err)
		return
	}

	r.sink.SetLiveBuckets(n)
	r.logger.Debug("rate limit windows sampled", "live_buckets", n)
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("rate limit reporter stopped")
	}
}

// IsRunning reports whether the job is scheduled.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled report time, or nil if not scheduled.
func (r *Reporter) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
