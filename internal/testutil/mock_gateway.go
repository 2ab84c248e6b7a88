// Package testutil provides a mock rsywx gateway for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// MockResponse defines the behavior for a mock gateway endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RequestRecord is one request observed by the mock.
type RequestRecord struct {
	Path   string
	Query  string
	Header http.Header
	At     time.Time
}

// MockGateway is a configurable mock gateway server.
type MockGateway struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests         []RequestRecord
	conditionalCount int
}

// NewMockGateway creates a new mock gateway server. Unconfigured paths
// answer 404 with a failed envelope.
func NewMockGateway() *MockGateway {
	mock := &MockGateway{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RequestRecord{
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			At:     time.Now(),
		})
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"data":null,"message":"not found"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGateway) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGateway) Close() {
	m.server.Close()
}

// Reset clears request tracking.
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.conditionalCount = 0
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGateway) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockGateway) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}

		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetEnvelope answers path with {"success":true,"data":<data>}.
func (m *MockGateway) SetEnvelope(path string, data any) {
	m.SetEnvelopeWithDelay(path, data, 0)
}

// SetEnvelopeWithDelay is SetEnvelope with an artificial latency.
func (m *MockGateway) SetEnvelopeWithDelay(path string, data any, delay time.Duration) {
	m.SetResponse(path, MockResponse{Body: Envelope(data), Delay: delay})
}

// SetStatus answers path with the given status and an error body.
func (m *MockGateway) SetStatus(path string, status int) {
	m.SetResponse(path, MockResponse{
		StatusCode: status,
		Body:       `{"success":false,"data":null,"message":"` + http.StatusText(status) + `"}`,
	})
}

// SetFailedEnvelope answers path with HTTP 200 and success:false.
func (m *MockGateway) SetFailedEnvelope(path string) {
	m.SetResponse(path, MockResponse{Body: `{"success":false,"data":null}`})
}

// Requests returns a copy of the observed requests in arrival order.
func (m *MockGateway) Requests() []RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RequestRecord, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGateway) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// CountFor returns the number of requests for one path.
func (m *MockGateway) CountFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// FirstRequestAt returns when path was first requested, or the zero time.
func (m *MockGateway) FirstRequestAt(path string) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if r.Path == path {
			return r.At
		}
	}
	return time.Time{}
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockGateway) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Envelope renders {"success":true,"data":<data>}.
func Envelope(data any) string {
	raw, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		panic(err)
	}
	return string(raw)
}
