// Package testutil provides a scripted inventory provider server for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines one scripted response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is what the mock saw for one request.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockProvider is a configurable inventory backend. Responses queued with
// Enqueue are served once each, in order; after that the path's fixed
// response from SetResponse applies, or 404.
type MockProvider struct {
	server *httptest.Server

	mu       sync.Mutex
	queues   map[string][]MockResponse
	fixed    map[string]MockResponse
	requests []RecordedRequest
}

// NewMockProvider starts a new mock provider server.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		queues: make(map[string][]MockResponse),
		fixed:  make(map[string]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, ok := mock.next(r)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no scripted response"}`))
			return
		}

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
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

func (m *MockProvider) next(r *http.Request) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, RecordedRequest{
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})

	if queue := m.queues[r.URL.Path]; len(queue) > 0 {
		m.queues[r.URL.Path] = queue[1:]
		return queue[0], true
	}
	resp, ok := m.fixed[r.URL.Path]
	return resp, ok
}

// URL returns the mock server URL.
func (m *MockProvider) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// Reset clears scripts and recorded requests.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues = make(map[string][]MockResponse)
	m.fixed = make(map[string]MockResponse)
	m.requests = nil
}

// SetResponse configures the response served for path once its queue is empty.
func (m *MockProvider) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[path] = resp
}

// Enqueue appends one-shot responses for path.
func (m *MockProvider) Enqueue(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = append(m.queues[path], resps...)
}

// Requests returns a copy of the recorded requests.
func (m *MockProvider) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewStatusResponse creates a response with only a status and body.
func NewStatusResponse(status int, body string) MockResponse {
	return MockResponse{StatusCode: status, Body: body}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "null",
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewPrivateInventoryResponse creates the community 403 "null" response.
func NewPrivateInventoryResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       "null",
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
