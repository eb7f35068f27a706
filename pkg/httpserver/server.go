package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ReadyFunc reports whether the service is ready along with a JSON-encodable
// body describing why.
type ReadyFunc func(ctx context.Context) (bool, any)

// NewMux returns an HTTP mux with shared diagnostics endpoints. A nil ready
// function always reports ready.
func NewMux(serviceName string, ready ReadyFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		ok, body := ready(r.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		WriteJSON(w, status, body)
	})
	mux.HandleFunc("GET /metrics", metricsHandler(serviceName))
	return mux
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves handler on port until ctx is canceled.
func Run(ctx context.Context, logger zerolog.Logger, port int, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           withRequestLog(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", port).Msg("serving capability report")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func withRequestLog(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		requests.inc(counterKey{a: r.URL.Path, b: strconv.Itoa(rec.status)})
		logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(b)
}

type counterKey struct {
	a, b string
}

type counterVec struct {
	m sync.Map
}

func (c *counterVec) inc(key counterKey) {
	v, _ := c.m.LoadOrStore(key, &atomic.Int64{})
	v.(*atomic.Int64).Add(1)
}

func (c *counterVec) write(w http.ResponseWriter, format, serviceName string) {
	c.m.Range(func(k, v any) bool {
		key := k.(counterKey)
		_, _ = fmt.Fprintf(w, format, serviceName, key.a, key.b, v.(*atomic.Int64).Load())
		return true
	})
}

var (
	startedAt = time.Now()
	requests  counterVec
	probes    counterVec
)

// RecordProbe counts one readiness evaluation of a capability.
func RecordProbe(capability, status string) {
	probes.inc(counterKey{a: capability, b: status})
}

func metricsHandler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		_, _ = fmt.Fprintf(w, "# HELP capprobe_http_requests_total Total HTTP requests handled.\n")
		_, _ = fmt.Fprintf(w, "# TYPE capprobe_http_requests_total counter\n")
		requests.write(w, "capprobe_http_requests_total{service=%q,path=%q,status=%q} %d\n", serviceName)
		_, _ = fmt.Fprintf(w, "# HELP capprobe_readiness_checks_total Capability evaluations by outcome.\n")
		_, _ = fmt.Fprintf(w, "# TYPE capprobe_readiness_checks_total counter\n")
		probes.write(w, "capprobe_readiness_checks_total{service=%q,capability=%q,status=%q} %d\n", serviceName)
		_, _ = fmt.Fprintf(w, "# HELP capprobe_process_uptime_seconds Process uptime in seconds.\n")
		_, _ = fmt.Fprintf(w, "# TYPE capprobe_process_uptime_seconds gauge\n")
		_, _ = fmt.Fprintf(w, "capprobe_process_uptime_seconds{service=%q} %.0f\n", serviceName, time.Since(startedAt).Seconds())
	}
}
