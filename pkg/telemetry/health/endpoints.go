package health

import (
	"encoding/json"
	"net/http"
)

// Handler returns the HTTP handler for the health endpoint.
//
// GET runs every probe and returns the report; HEAD returns only the status.
//
// Returns:
//   - 200 OK: every dependency is available
//   - 503 Service Unavailable: at least one dependency is unavailable
//
// Example response:
//
//	{
//	    "status": "healthy",
//	    "timestamp": "2025-11-20T10:30:00.000Z",
//	    "version": "1.0.0",
//	    "uptime": 3600,
//	    "services": {
//	        "geminiApi": {"status": "available", "responseTime": 182}
//	    }
//	}
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		if report.Healthy() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(report)
		}
	}
}
