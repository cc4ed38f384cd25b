package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/permitindex/internal/feedback"
)

type stubTracker struct{}

func (stubTracker) CreateIssue(_ context.Context, _ feedback.Issue) (*feedback.IssueResult, error) {
	return &feedback.IssueResult{Number: 3, URL: "https://github.com/civic/permits/issues/3"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := feedback.NewMetrics(reg)
	require.NoError(t, err)

	s, err := New(Config{
		Port:     0,
		Feedback: feedback.NewHandler(stubTracker{}, feedback.HandlerOptions{Metrics: metrics}),
		Gatherer: reg,
	})
	require.NoError(t, err)
	return s
}

// TestHealthEndpoint tests the /health endpoint
func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestNew_RequiresFeedbackHandler(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestFeedbackRoute_AllMethodsReachHandler(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		body   string
		want   int
	}{
		{method: http.MethodPost, body: `{"permit_slug":"a","feedback_type":"tip","feedback_text":"ok"}`, want: http.StatusOK},
		{method: http.MethodOptions, want: http.StatusNoContent},
		{method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{method: http.MethodDelete, want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/feedback", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusMethodNotAllowed {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	post := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"permit_slug":"a","feedback_type":"tip","feedback_text":"ok"}`))
	s.Handler().ServeHTTP(httptest.NewRecorder(), post)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `permitindex_feedback_requests_total{outcome="accepted"} 1`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "ok")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
