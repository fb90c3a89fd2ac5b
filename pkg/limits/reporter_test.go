package limits

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubSource struct {
	n   int
	err error
}

func (s stubSource) Live(context.Context) (int, error) { return s.n, s.err }

type recordingSink struct {
	mu     sync.Mutex
	values []int
}

func (s *recordingSink) SetLiveBuckets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, n)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func TestReporter_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "every minute", schedule: "@every 1m", wantRunning: true},
		{name: "standard cron", schedule: "*/5 * * * *", wantRunning: true},
		{name: "empty schedule", schedule: "", wantRunning: false},
		{name: "invalid schedule", schedule: "not a schedule", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter(stubSource{n: 1}, &recordingSink{}, tt.schedule, nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := r.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if r.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", r.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && r.NextRun() == nil {
				t.Error("NextRun() = nil for running reporter")
			}
			r.Stop()
			if r.IsRunning() {
				t.Error("reporter still running after Stop()")
			}
		})
	}
}

func TestReporter_Report(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(stubSource{n: 7}, sink, "@every 1m", nil)

	r.Report(context.Background())

	if sink.count() != 1 || sink.values[0] != 7 {
		t.Errorf("sink values = %v, want [7]", sink.values)
	}
}

func TestReporter_ReportSourceError(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(stubSource{err: errors.New("redis down")}, sink, "@every 1m", nil)

	r.Report(context.Background())

	if sink.count() != 0 {
		t.Errorf("sink updated despite source error: %v", sink.values)
	}
}

func TestReporter_StopsOnContextCancel(t *testing.T) {
	r := NewReporter(stubSource{n: 1}, &recordingSink{}, "@every 1h", nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for r.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if r.IsRunning() {
		t.Error("reporter still running after context cancel")
	}
}
