package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// countingHandler writes a body that changes on every call.
type countingHandler struct {
	calls  atomic.Int32
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.calls.Add(1)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"call":`+string(rune('0'+n))+`}`)
}

func serve(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestMiddleware_HitSkipsHandler(t *testing.T) {
	store, _ := newTestStore()
	next := &countingHandler{}
	h := Middleware(store, DefaultMiddlewareConfig(), zerolog.Nop())(next)

	first := serve(t, h, "/api/posts?tags=tech")
	second := serve(t, h, "/api/posts?tags=tech")

	if got := next.calls.Load(); got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}

	b1, b2 := readBody(t, first), readBody(t, second)
	if b1 != b2 {
		t.Errorf("cached body differs: %q vs %q", b1, b2)
	}
	if got := first.Header.Get(HeaderCache); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	if got := second.Header.Get(HeaderCache); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if got := second.Header.Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("cached Content-Type = %q", got)
	}
}

func TestMiddleware_ExpiryRefetches(t *testing.T) {
	store, clock := newTestStore()
	next := &countingHandler{}
	h := Middleware(store, MiddlewareConfig{TTL: time.Second}, zerolog.Nop())(next)

	first := readBody(t, serve(t, h, "/"))
	clock.Advance(time.Second)
	second := readBody(t, serve(t, h, "/"))

	if got := next.calls.Load(); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}
	if first == second {
		t.Errorf("expected a fresh response after TTL, got %q twice", first)
	}
}

func TestMiddleware_DistinctKeys(t *testing.T) {
	store, _ := newTestStore()
	next := &countingHandler{}
	h := Middleware(store, DefaultMiddlewareConfig(), zerolog.Nop())(next)

	serve(t, h, "/api/posts?tags=a&sortBy=likes")
	serve(t, h, "/api/posts?sortBy=likes&tags=a")

	if got := next.calls.Load(); got != 2 {
		t.Errorf("handler called %d times, want 2 for reordered query", got)
	}
}

func TestMiddleware_Policy(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		status    int
		wantCalls int32
	}{
		{name: "success only stores 200", policy: PolicySuccessOnly, status: 200, wantCalls: 1},
		{name: "success only skips 400", policy: PolicySuccessOnly, status: 400, wantCalls: 2},
		{name: "success only skips 502", policy: PolicySuccessOnly, status: 502, wantCalls: 2},
		{name: "all stores 400", policy: PolicyAll, status: 400, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()
			next := &countingHandler{status: tt.status}
			h := Middleware(store, MiddlewareConfig{TTL: time.Second, Policy: tt.policy}, zerolog.Nop())(next)

			first := serve(t, h, "/api/posts")
			second := serve(t, h, "/api/posts")

			if got := next.calls.Load(); got != tt.wantCalls {
				t.Errorf("handler called %d times, want %d", got, tt.wantCalls)
			}
			if first.StatusCode != tt.status || second.StatusCode != tt.status {
				t.Errorf("status = %d/%d, want %d", first.StatusCode, second.StatusCode, tt.status)
			}
		})
	}
}

func TestMiddleware_NonGetBypasses(t *testing.T) {
	store, _ := newTestStore()
	next := &countingHandler{}
	h := Middleware(store, DefaultMiddlewareConfig(), zerolog.Nop())(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := next.calls.Load(); got != 2 {
		t.Errorf("handler called %d times, want 2", got)
	}
	if store.Len() != 0 {
		t.Errorf("POST responses must not be stored, Len() = %d", store.Len())
	}
}

func TestMiddleware_ImplicitStatus(t *testing.T) {
	store, _ := newTestStore()
	h := Middleware(store, DefaultMiddlewareConfig(), zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Welcome"))
	}))

	resp := serve(t, h, "/")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	entry, ok := store.Get("/")
	if !ok {
		t.Fatal("response should have been stored")
	}
	if entry.Headers.Get("Content-Type") == "" {
		t.Error("Content-Type should be sniffed when the handler sets none")
	}
}

func TestPolicy_Allows(t *testing.T) {
	tests := []struct {
		policy Policy
		status int
		want   bool
	}{
		{PolicySuccessOnly, 200, true},
		{PolicySuccessOnly, 204, true},
		{PolicySuccessOnly, 301, false},
		{PolicySuccessOnly, 400, false},
		{PolicyAll, 400, true},
		{PolicyAll, 500, true},
		{"", 200, true},
		{"", 404, false},
	}

	for _, tt := range tests {
		if got := tt.policy.Allows(tt.status); got != tt.want {
			t.Errorf("Policy(%q).Allows(%d) = %v, want %v", tt.policy, tt.status, got, tt.want)
		}
	}
}
