package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: 5 * time.Second},
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout, "1.0.0")

			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if checker.CheckCount() != 0 {
				t.Errorf("expected 0 checks, got %d", checker.CheckCount())
			}
		})
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	checker := New(time.Second, "1.0.0")
	checker.RegisterCheck("geminiApi", func(context.Context) error { return nil })
	checker.RegisterCheck("redis", func(context.Context) error { return nil })

	if checker.CheckCount() != 2 {
		t.Fatalf("expected 2 checks, got %d", checker.CheckCount())
	}

	checker.UnregisterCheck("redis")
	names := checker.ListChecks()
	if len(names) != 1 || names[0] != "geminiApi" {
		t.Errorf("ListChecks() = %v, want [geminiApi]", names)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusHealthy,
		},
		{
			name: "all available",
			checks: map[string]CheckFunc{
				"geminiApi": func(context.Context) error { return nil },
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "one unavailable",
			checks: map[string]CheckFunc{
				"geminiApi": func(context.Context) error { return errors.New("API key not configured") },
				"redis":     func(context.Context) error { return nil },
			},
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second, "1.0.0")
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			report := checker.Check(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", report.Status, tt.wantStatus)
			}
			if len(report.Services) != len(tt.checks) {
				t.Errorf("Services = %d entries, want %d", len(report.Services), len(tt.checks))
			}
			if report.Version != "1.0.0" {
				t.Errorf("Version = %q", report.Version)
			}
		})
	}
}

func TestCheck_ErrorMessage(t *testing.T) {
	checker := New(time.Second, "1.0.0")
	checker.RegisterCheck("geminiApi", func(context.Context) error {
		return errors.New("API key not configured")
	})

	report := checker.Check(context.Background())
	svc := report.Services["geminiApi"]
	if svc.Status != StatusUnavailable {
		t.Errorf("service status = %q, want unavailable", svc.Status)
	}
	if svc.Error != "API key not configured" {
		t.Errorf("service error = %q", svc.Error)
	}
}

func TestCheck_Timeout(t *testing.T) {
	checker := New(50*time.Millisecond, "1.0.0")
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	start := time.Now()
	report := checker.Check(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Error("check did not respect timeout")
	}
	if report.Healthy() {
		t.Error("expected unhealthy report after timeout")
	}
}

func TestCheck_Uptime(t *testing.T) {
	checker := New(time.Second, "1.0.0")
	checker.now = func() time.Time { return checker.started.Add(90 * time.Second) }

	if got := checker.Check(context.Background()).Uptime; got != 90 {
		t.Errorf("Uptime = %d, want 90", got)
	}
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		check      CheckFunc
		wantStatus int
		wantBody   bool
	}{
		{name: "GET healthy", method: http.MethodGet, check: func(context.Context) error { return nil }, wantStatus: http.StatusOK, wantBody: true},
		{name: "GET unhealthy", method: http.MethodGet, check: func(context.Context) error { return errors.New("down") }, wantStatus: http.StatusServiceUnavailable, wantBody: true},
		{name: "HEAD healthy", method: http.MethodHead, check: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "HEAD unhealthy", method: http.MethodHead, check: func(context.Context) error { return errors.New("down") }, wantStatus: http.StatusServiceUnavailable},
		{name: "POST rejected", method: http.MethodPost, check: func(context.Context) error { return nil }, wantStatus: http.StatusMethodNotAllowed, wantBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second, "1.0.0")
			checker.RegisterCheck("geminiApi", tt.check)

			rec := httptest.NewRecorder()
			checker.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotBody := rec.Body.Len() > 0; gotBody != tt.wantBody {
				t.Errorf("body present = %v, want %v", gotBody, tt.wantBody)
			}
			if tt.method == http.MethodPost {
				return
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
				t.Errorf("Cache-Control = %q", cc)
			}
			if tt.method == http.MethodGet {
				var report Report
				if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if _, ok := report.Services["geminiApi"]; !ok {
					t.Error("report missing geminiApi service")
				}
			}
		})
	}
}
