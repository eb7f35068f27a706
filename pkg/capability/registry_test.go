package capability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func countingCheck(v string, calls *atomic.Int32) Check {
	return func(context.Context) (Info, error) {
		calls.Add(1)
		return Info{Version: v, Location: "stub"}, nil
	}
}

func TestProbeOutcomes(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("stub", Static("0.0.1"))
	r.MustRegister("lib", Static("1.2.0"))
	r.MustRegister("unversioned", Static(""))
	r.MustRegister("broken", Missing("not installed"))

	tests := []struct {
		name    string
		min     string
		want    Status
		wantErr error
	}{
		{name: "nonexistent_pkg_xyz", want: Unavailable, wantErr: ErrUnknownCapability},
		{name: "stub", want: Available},
		{name: "stub", min: "0.0.1", want: Available},
		{name: "stub", min: "9.9.9", want: VersionTooLow},
		{name: "lib", min: "1.1.0", want: Available},
		{name: "lib", min: "1.3.0", want: VersionTooLow},
		{name: "unversioned", want: Available},
		{name: "unversioned", min: "1.0", want: Unavailable, wantErr: ErrNoVersion},
		{name: "broken", want: Unavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name+"@"+tc.min, func(t *testing.T) {
			t.Parallel()
			res := r.Probe(context.Background(), tc.name, tc.min)
			if res.Status != tc.want {
				t.Fatalf("status = %v, want %v (%v)", res.Status, tc.want, res)
			}
			if res.OK() != (tc.want == Available) {
				t.Fatalf("OK() = %v for %v", res.OK(), res.Status)
			}
			if tc.wantErr != nil && !errors.Is(res.Err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", res.Err, tc.wantErr)
			}
			if tc.want != Unavailable && res.Err != nil {
				t.Fatalf("unexpected err %v", res.Err)
			}
		})
	}
}

func TestProbeIsMemoized(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("lib", countingCheck("2.0", &calls))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := r.Probe(context.Background(), "lib", "1.0"); !res.OK() {
				t.Errorf("unexpected result %v", res)
			}
		}()
	}
	wg.Wait()
	if got := calls.Load(); got != 1 {
		t.Fatalf("check ran %d times, want 1", got)
	}

	r.Probe(context.Background(), "lib", "")
	if got := calls.Load(); got != 2 {
		t.Fatalf("a different floor should probe again, ran %d times", got)
	}
}

func TestProbeIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("svc", func(ctx context.Context) (Info, error) {
		if err := ctx.Err(); err != nil {
			return Info{}, err
		}
		return Info{Version: "1.0"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := r.Probe(ctx, "svc", ""); !res.OK() {
		t.Fatalf("cancelled caller should still see the real outcome, got %v", res)
	}
	if res := r.Probe(context.Background(), "svc", ""); !res.OK() {
		t.Fatalf("later caller got %v", res)
	}
}

func TestProbeSeesLateRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	if res := r.Probe(context.Background(), "late", ""); !errors.Is(res.Err, ErrUnknownCapability) {
		t.Fatalf("expected unknown capability, got %v", res)
	}
	r.MustRegister("late", Static("1.0"))
	if res := r.Probe(context.Background(), "late", ""); !res.OK() {
		t.Fatalf("expected late registration to be probed, got %v", res)
	}
}

func TestProbeRecoversPanics(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("boom", func(context.Context) (Info, error) { panic("kaboom") })
	if res := r.Probe(context.Background(), "boom", ""); res.Status != Unavailable || res.Err == nil {
		t.Fatalf("expected unavailable with error, got %v", res)
	}
}

func TestProbeAppliesTimeout(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop(), WithTimeout(20*time.Millisecond))
	r.MustRegister("slow", func(ctx context.Context) (Info, error) {
		<-ctx.Done()
		return Info{}, ctx.Err()
	})
	res := r.Probe(context.Background(), "slow", "")
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", res.Err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	if err := r.Register("a", Static("1")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("a", Static("2")); !errors.Is(err, ErrDuplicateCapability) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	r.MustRegister("b", Static("1"))
	if got := r.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Names() = %v", got)
	}
}

func TestProbeAllKeepsOrder(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("a", Static("1.0"))
	r.MustRegister("b", Static("3.0"))
	reqs := []Requirement{{Name: "b", MinVersion: "2"}, {Name: "missing"}, {Name: "a", MinVersion: "2"}}

	results := r.ProbeAll(context.Background(), reqs)
	want := []Status{Available, Unavailable, VersionTooLow}
	for i, res := range results {
		if res.Name != reqs[i].Name || res.Status != want[i] {
			t.Fatalf("result %d = %v, want %s %v", i, res, reqs[i].Name, want[i])
		}
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("renderer", Static("3.1"))
	r.MustRegister("absent", Missing("nope"))

	var runs atomic.Int32
	r.OnInit("renderer", func(_ context.Context, res Result) error {
		if res.Info.Version != "3.1" {
			t.Errorf("initializer got %v", res)
		}
		runs.Add(1)
		return nil
	})
	r.OnInit("absent", func(context.Context, Result) error {
		t.Error("initializer must not run for an unavailable capability")
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := r.Initialize(context.Background(), "renderer"); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
	}
	if got := runs.Load(); got != 1 {
		t.Fatalf("initializer ran %d times", got)
	}
	if err := r.Initialize(context.Background(), "absent"); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestInitializeKeepsFirstError(t *testing.T) {
	t.Parallel()
	r := NewRegistry(zerolog.Nop())
	r.MustRegister("x", Static("1"))
	boom := errors.New("boom")
	var runs atomic.Int32
	r.OnInit("x", func(context.Context, Result) error {
		runs.Add(1)
		return boom
	})
	for i := 0; i < 2; i++ {
		if err := r.Initialize(context.Background(), "x"); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if runs.Load() != 1 {
		t.Fatalf("initializer ran %d times", runs.Load())
	}
}

func TestResultString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		res  Result
		want string
	}{
		{res: Result{Name: "git", Status: Available, Info: Info{Version: "2.43.0"}}, want: "git: available (2.43.0)"},
		{res: Result{Name: "git", MinVersion: "3", Status: VersionTooLow, Info: Info{Version: "2.43.0"}}, want: "git>=3: version too low (2.43.0)"},
		{res: Result{Name: "x", Err: ErrUnknownCapability}, want: "x: unavailable: unknown capability"},
	}
	for _, tc := range tests {
		if got := tc.res.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
