package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/atelier/pkg/limits/ratelimit"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

type recordingObserver struct {
	mu         sync.Mutex
	routes     []string
	statuses   []int
	panics     int
	rejections int
}

func (o *recordingObserver) ObserveHTTP(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) PanicRecovered() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.panics++
}

func (o *recordingObserver) RateLimitRejected() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejections++
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id and scoped logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, nil))

		var gotID string
		handler := RequestIDMiddleware(base, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = logging.GetRequestID(r.Context())
			logging.FromContext(r.Context()).Info("inside handler")
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/gemini", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if gotID == "" {
			t.Fatal("request ID not stored in context")
		}
		if rec.Header().Get("X-Request-ID") != gotID {
			t.Errorf("X-Request-ID header = %q, want %q", rec.Header().Get("X-Request-ID"), gotID)
		}

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("decode log: %v", err)
		}
		if entry["request_id"] != gotID {
			t.Errorf("log request_id = %v", entry["request_id"])
		}
		if entry["client_ip"] != "203.0.113.7" {
			t.Errorf("log client_ip = %v", entry["client_ip"])
		}
		if entry["path"] != "/api/gemini" {
			t.Errorf("log path = %v", entry["path"])
		}
	})

	t.Run("reuses caller id", func(t *testing.T) {
		handler := RequestIDMiddleware(nil, false)(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-supplied")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get("X-Request-ID") != "caller-supplied" {
			t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
		}
	})

	t.Run("rejects oversized caller id", func(t *testing.T) {
		handler := RequestIDMiddleware(nil, false)(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("a", 500))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
			t.Errorf("X-Request-ID = %q, want generated UUID", got)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		handler := RequestIDMiddleware(nil, false)(okHandler)
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			id := rec.Header().Get("X-Request-ID")
			if seen[id] {
				t.Fatalf("duplicate request ID %q", id)
			}
			seen[id] = true
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		obs := &recordingObserver{}
		handler := RecoveryMiddleware(obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req = req.WithContext(logging.WithRequestID(req.Context(), "rid"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Status code = %v, want %v", rec.Code, http.StatusInternalServerError)
		}
		var resp types.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error != "[rid] Internal server error" {
			t.Errorf("error = %q", resp.Error)
		}
		if strings.Contains(rec.Body.String(), "test panic") {
			t.Error("panic value leaked to client")
		}
		if obs.panics != 1 {
			t.Errorf("panics observed = %d, want 1", obs.panics)
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		handler := RecoveryMiddleware(nil)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	obs := &recordingObserver{}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	handler := RequestIDMiddleware(base, false)(LoggingMiddleware(obs)(inner))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if len(obs.statuses) != 1 || obs.statuses[0] != http.StatusTeapot || obs.routes[0] != "/api/config" {
		t.Errorf("observed routes=%v statuses=%v", obs.routes, obs.statuses)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 4xx", entry["level"])
	}
	if entry["bytes"] != float64(len("short and stout")) {
		t.Errorf("bytes = %v", entry["bytes"])
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for k, v := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
	} {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("preflight returns 200 without body", func(t *testing.T) {
		called := false
		handler := CORSMiddleware(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodOptions, "/api/gemini", strings.NewReader("garbage"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", rec.Body.String())
		}
		if called {
			t.Error("preflight reached the next handler")
		}
		if rec.Header().Get("Access-Control-Max-Age") != "86400" {
			t.Errorf("Max-Age = %q", rec.Header().Get("Access-Control-Max-Age"))
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("missing Allow-Methods")
		}
	})

	t.Run("wildcard origin on normal request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORSMiddleware(DefaultCORSConfig())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/gemini", nil))

		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("explicit origin list", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"https://gallery.example"}
		handler := CORSMiddleware(cfg)(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://gallery.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://gallery.example" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("Allow-Origin set for unknown origin: %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), ratelimit.Config{Window: time.Minute, MaxRequests: 3}, ratelimit.WithClock(clock.Now))
	obs := &recordingObserver{}
	handler := RateLimitMiddleware(limiter, obs, true)(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/gemini", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 3; i++ {
		rec := send()
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
		if got := rec.Header().Get(HeaderRateLimitRemaining); got != strconv.Itoa(3-i) {
			t.Errorf("request %d: remaining = %q", i, got)
		}
		if got := rec.Header().Get(HeaderRateLimitLimit); got != "3" {
			t.Errorf("limit = %q", got)
		}
		if got := rec.Header().Get(HeaderRateLimitReset); got != strconv.FormatInt(clock.Now().Add(time.Minute).Unix(), 10) {
			t.Errorf("reset = %q", got)
		}
		if rec.Header().Get("Retry-After") != "" {
			t.Error("Retry-After set on allowed request")
		}
	}

	clock.Advance(15 * time.Second)
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "45" {
		t.Errorf("Retry-After = %q, want 45", got)
	}
	if got := rec.Header().Get(HeaderRateLimitRemaining); got != "0" {
		t.Errorf("remaining = %q, want 0", got)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != MsgTooManyRequests {
		t.Errorf("error = %q", resp.Error)
	}
	if obs.rejections != 1 {
		t.Errorf("rejections = %d, want 1", obs.rejections)
	}

	clock.Advance(46 * time.Second)
	if rec := send(); rec.Code != http.StatusOK || rec.Header().Get(HeaderRateLimitRemaining) != "2" {
		t.Errorf("after window: status %d remaining %q", rec.Code, rec.Header().Get(HeaderRateLimitRemaining))
	}
}

func TestRateLimitMiddleware_OptionsBypass(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), ratelimit.Config{Window: time.Minute, MaxRequests: 1})
	handler := CORSMiddleware(DefaultCORSConfig())(RateLimitMiddleware(limiter, nil, false)(okHandler))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/gemini", nil))
		if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
			t.Fatalf("preflight %d: status %d body %q", i, rec.Code, rec.Body.String())
		}
	}
}

type brokenCounter struct{}

func (brokenCounter) Increment(context.Context, string, time.Time, time.Duration) (ratelimit.Window, error) {
	return ratelimit.Window{}, errors.New("connection refused")
}
func (brokenCounter) Len(context.Context, time.Time) (int, error) { return 0, nil }
func (brokenCounter) Close() error                                 { return nil }

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := ratelimit.NewLimiter(brokenCounter{}, ratelimit.DefaultConfig())
	rec := httptest.NewRecorder()
	RateLimitMiddleware(limiter, nil, false)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/gemini", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when counter fails", rec.Code)
	}
}

func TestRateLimitMiddleware_UsesContextClientIP(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), ratelimit.Config{Window: time.Minute, MaxRequests: 1})
	handler := RequestIDMiddleware(nil, true)(RateLimitMiddleware(limiter, nil, true)(okHandler))

	for _, ip := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/gemini", nil)
		req.Header.Set("CF-Connecting-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("client %s: status %d, want 200 (separate buckets)", ip, rec.Code)
		}
	}
}
