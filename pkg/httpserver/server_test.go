package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestReadyzReflectsReadyFunc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		ready  ReadyFunc
		status int
		body   string
	}{
		{name: "no check", status: http.StatusOK, body: "ready"},
		{name: "ready", ready: func(context.Context) (bool, any) { return true, map[string]bool{"ready": true} }, status: http.StatusOK, body: `{"ready":true}`},
		{name: "not ready", ready: func(context.Context) (bool, any) { return false, map[string]bool{"ready": false} }, status: http.StatusServiceUnavailable, body: `{"ready":false}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mux := NewMux("test", tc.ready)
			res := httptest.NewRecorder()
			mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if res.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, res.Code)
			}
			if got := strings.TrimSpace(res.Body.String()); got != tc.body {
				t.Fatalf("body = %q, want %q", got, tc.body)
			}
		})
	}
}

func TestMetricsCountRequestsAndProbes(t *testing.T) {
	handler := withRequestLog(NewMux("svc", nil), zerolog.Nop())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK || res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("unexpected healthz response %d %v", res.Code, res.Header())
	}
	RecordProbe("docker", "unavailable")

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := res.Body.String()
	for _, want := range []string{
		`capprobe_http_requests_total{service="svc",path="/healthz",status="200"}`,
		`capprobe_readiness_checks_total{service="svc",capability="docker",status="unavailable"}`,
		`capprobe_process_uptime_seconds{service="svc"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s:\n%s", want, body)
		}
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	t.Parallel()
	handler := withRequestLog(NewMux("svc", nil), zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("X-Request-Id = %q", got)
	}
}
