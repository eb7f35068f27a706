package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/paul-cloud-game-backend/capprobe/pkg/capability"
)

// TestTimeout reads TEST_TIMEOUT_SECONDS, defaulting to 10 seconds.
func TestTimeout(t *testing.T) time.Duration {
	t.Helper()
	v := os.Getenv("TEST_TIMEOUT_SECONDS")
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		t.Logf("invalid TEST_TIMEOUT_SECONDS=%q, using default 10", v)
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

// Context returns a context bounded by TestTimeout.
func Context(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout(t))
}

// StubRegistry returns a registry whose capabilities report fixed versions.
// An empty version registers a capability that is present but unversioned.
func StubRegistry(t *testing.T, versions map[string]string) *capability.Registry {
	t.Helper()
	r := capability.NewRegistry(zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel))
	for name, v := range versions {
		if err := r.Register(name, capability.Static(v)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return r
}

// FakeTB records skips instead of stopping the test.
type FakeTB struct {
	Skipped bool
	Reason  string
}

func (f *FakeTB) Helper() {}

func (f *FakeTB) Skip(args ...any) {
	f.Skipped = true
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			f.Reason = s
		}
	}
}
