// Package testutil provides testing utilities for the posts API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/hatchways-assessment/posts-api/pkg/posts"
)

// PostsPath is the path the mock serves posts on.
const PostsPath = "/assessment/blog/posts"

// MockResponse defines a canned reply for a single tag.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable stand-in for the blog posts API.
// Requests are answered from the posts registered per tag unless a
// response or handler override exists for that tag.
type MockUpstream struct {
	server *httptest.Server

	mu         sync.RWMutex
	posts      map[string][]posts.Post
	handlers   map[string]http.HandlerFunc
	delay      time.Duration
	requests   int
	perTag     map[string]int
	lastHeader http.Header
}

// NewMockUpstream starts a new mock upstream server.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		posts:    make(map[string][]posts.Post),
		handlers: make(map[string]http.HandlerFunc),
		perTag:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockUpstream) serve(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")

	m.mu.Lock()
	m.requests++
	m.perTag[tag]++
	m.lastHeader = r.Header.Clone()
	handler, hasHandler := m.handlers[tag]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if hasHandler {
		handler(w, r)
		return
	}

	if r.URL.Path != PostsPath {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if tag == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "The tag parameter is required"}`))
		return
	}

	m.mu.RLock()
	matched := m.posts[tag]
	m.mu.RUnlock()

	if matched == nil {
		matched = []posts.Post{}
	}
	json.NewEncoder(w).Encode(posts.Response{Posts: matched})
}

// URL returns the full posts endpoint URL of the mock.
func (m *MockUpstream) URL() string {
	return m.server.URL + PostsPath
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = 0
	m.perTag = make(map[string]int)
	m.lastHeader = nil
}

// SetPosts registers the posts returned for tag.
func (m *MockUpstream) SetPosts(tag string, list ...posts.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[tag] = append([]posts.Post(nil), list...)
}

// SetDelay delays every response by d.
func (m *MockUpstream) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetHandler overrides the handler for requests with the given tag.
func (m *MockUpstream) SetHandler(tag string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[tag] = handler
}

// SetResponse configures a canned response for the given tag.
func (m *MockUpstream) SetResponse(tag string, resp MockResponse) {
	m.SetHandler(tag, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests the mock received.
func (m *MockUpstream) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests
}

// TagRequestCount returns the number of requests made for tag.
func (m *MockUpstream) TagRequestCount(tag string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.perTag[tag]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockUpstream) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Retry-After":  "1",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"posts": [`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMissingPostsResponse creates a 200 response that is valid JSON but has no posts field.
func NewMissingPostsResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"error": "boom"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewPost builds a post carrying the given tags.
func NewPost(id, likes, reads int, popularity float64, tags ...string) posts.Post {
	return posts.Post{
		ID:         id,
		Author:     "Author " + string(rune('A'+id%26)),
		AuthorID:   id * 10,
		Likes:      likes,
		Popularity: popularity,
		Reads:      reads,
		Tags:       tags,
	}
}
