// Package upstreamtest provides a mock image API for tests.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Request is one call received by the mock.
type Request struct {
	Method string
	Path   string
	Key    string
	Body   map[string]any
}

// Response defines how the mock answers a call.
type Response struct {
	StatusCode int
	Body       any
	Delay      time.Duration
}

// Server is a mock upstream. Responses are matched on the path suffix after
// the model name (":generateContent", ":generateImage", "/models").
type Server struct {
	server    *httptest.Server
	responses map[string]Response
	fallback  Response
	requests  []Request
	mu        sync.Mutex
}

// Path suffixes understood by SetResponse.
const (
	Edit     = ":generateContent"
	Generate = ":generateImage"
	Models   = "/models"
)

// NewServer starts a mock that answers 404 until responses are set.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]Response),
		fallback:  Response{StatusCode: http.StatusNotFound, Body: ErrorBody("not found")},
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the versioned API root to configure clients with.
func (s *Server) URL() string {
	return s.server.URL + "/v1beta"
}

// Close shuts the mock down.
func (s *Server) Close() {
	s.server.Close()
}

// SetResponse sets the answer for calls whose path ends with suffix.
func (s *Server) SetResponse(suffix string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[suffix] = resp
}

// SetDefault sets the answer for every call.
func (s *Server) SetDefault(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = resp
	s.responses = make(map[string]Response)
}

// Requests returns a copy of the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of calls received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Key:    r.URL.Query().Get("key"),
		Body:   body,
	})
	resp := s.fallback
	for suffix, candidate := range s.responses {
		if strings.HasSuffix(r.URL.Path, suffix) {
			resp = candidate
			break
		}
	}
	s.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Part is one element of an edit response's candidate content.
type Part struct {
	Text  *string
	Image *string
}

// Text returns a text part.
func Text(s string) Part { return Part{Text: &s} }

// Image returns an inline image part carrying base64 data.
func Image(b64 string) Part { return Part{Image: &b64} }

// EditBody builds a generateContent answer with one candidate.
func EditBody(parts ...Part) map[string]any {
	out := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Text != nil:
			out = append(out, map[string]any{"text": *p.Text})
		case p.Image != nil:
			out = append(out, map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": *p.Image}})
		}
	}
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"role": "model", "parts": out}},
		},
	}
}

// GenerateBody builds a generateImage answer with one image.
func GenerateBody(imageBytes string) map[string]any {
	return map[string]any{
		"generatedImages": []any{
			map[string]any{"image": map[string]any{"imageBytes": imageBytes}},
		},
	}
}

// ErrorBody builds an upstream error answer.
func ErrorBody(message string) map[string]any {
	return map[string]any{"error": map[string]any{"message": message}}
}

// ModelsBody builds a model list answer.
func ModelsBody(names ...string) map[string]any {
	models := make([]any, 0, len(names))
	for _, n := range names {
		models = append(models, map[string]any{"name": fmt.Sprintf("models/%s", n)})
	}
	return map[string]any{"models": models}
}
