// Package capability probes the environment for optional tools and
// services and reports whether each one is present at a required version.
package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/paul-cloud-game-backend/capprobe/pkg/version"
)

const defaultTimeout = 5 * time.Second

// Requirement names a capability and an optional version floor.
type Requirement struct {
	Name       string `json:"name" yaml:"name"`
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
}

func (r Requirement) String() string {
	if r.MinVersion == "" {
		return r.Name
	}
	return r.Name + "@" + r.MinVersion
}

type probeKey struct {
	name string
	min  string
}

type memo struct {
	once   sync.Once
	result Result
}

type initializer struct {
	once sync.Once
	fn   func(context.Context, Result) error
	err  error
}

// Registry maps capability names to checks. Probe results are computed on
// first use and cached for the lifetime of the registry.
type Registry struct {
	logger  zerolog.Logger
	timeout time.Duration

	mu     sync.Mutex
	checks map[string]Check
	memos  map[probeKey]*memo
	inits  map[string]*initializer
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout bounds how long a single check may run.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger:  logger,
		timeout: defaultTimeout,
		checks:  map[string]Check{},
		memos:   map[probeKey]*memo{},
		inits:   map[string]*initializer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a check under name.
func (r *Registry) Register(name string, check Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCapability, name)
	}
	r.checks[name] = check
	return nil
}

// MustRegister is Register for startup code; it panics on duplicates.
func (r *Registry) MustRegister(name string, check Check) {
	if err := r.Register(name, check); err != nil {
		panic(err)
	}
}

// Names returns the registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probe reports whether name is available and, when minVersion is set,
// whether its version is at least minVersion. The check runs at most once
// per (name, minVersion) pair; later calls return the cached Result.
// Unregistered names report ErrUnknownCapability without being cached.
func (r *Registry) Probe(ctx context.Context, name, minVersion string) Result {
	r.mu.Lock()
	check, known := r.checks[name]
	if !known {
		// Not cached, so a later Register of name takes effect.
		r.mu.Unlock()
		return Result{Name: name, MinVersion: minVersion, Err: ErrUnknownCapability}
	}
	key := probeKey{name: name, min: minVersion}
	m, ok := r.memos[key]
	if !ok {
		m = &memo{}
		r.memos[key] = m
	}
	r.mu.Unlock()

	m.once.Do(func() {
		m.result = r.evaluate(ctx, name, minVersion, check)
	})
	return m.result
}

// evaluate runs check detached from the caller's cancellation: the result
// is shared by every later caller, so only the registry timeout bounds it.
func (r *Registry) evaluate(ctx context.Context, name, minVersion string, check Check) Result {
	res := Result{Name: name, MinVersion: minVersion}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	start := time.Now()
	info, err := runCheck(ctx, check)
	res.Info = info

	switch {
	case err != nil:
		res.Err = err
	case minVersion == "":
		res.Status = Available
	case info.Version == "":
		res.Err = ErrNoVersion
	case version.AtLeast(info.Version, minVersion):
		res.Status = Available
	default:
		res.Status = VersionTooLow
	}

	r.logger.Debug().
		Str("capability", name).
		Str("min_version", minVersion).
		Str("version", info.Version).
		Str("status", res.Status.String()).
		AnErr("reason", res.Err).
		Dur("duration", time.Since(start)).
		Msg("probed capability")
	return res
}

// runCheck turns a panicking check into an unavailable result.
func runCheck(ctx context.Context, check Check) (info Info, err error) {
	defer func() {
		if p := recover(); p != nil {
			info, err = Info{}, fmt.Errorf("check panicked: %v", p)
		}
	}()
	return check(ctx)
}

// ProbeAll probes every requirement concurrently and returns the results in
// the order given.
func (r *Registry) ProbeAll(ctx context.Context, reqs []Requirement) []Result {
	results := make([]Result, len(reqs))
	var g errgroup.Group
	g.SetLimit(4)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = r.Probe(ctx, req.Name, req.MinVersion)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// OnInit registers a one-time setup step for name. It runs only when
// Initialize is called and the capability is available.
func (r *Registry) OnInit(name string, fn func(context.Context, Result) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits[name] = &initializer{fn: fn}
}

// Initialize probes name and, if available, runs its setup step. The step
// runs at most once; repeated calls return the first outcome.
func (r *Registry) Initialize(ctx context.Context, name string) error {
	res := r.Probe(ctx, name, "")
	if !res.OK() {
		return fmt.Errorf("initialize %s: %w", name, ErrNotAvailable)
	}

	r.mu.Lock()
	in, ok := r.inits[name]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	in.once.Do(func() {
		in.err = in.fn(ctx, res)
		if in.err == nil {
			r.logger.Debug().Str("capability", name).Msg("initialized capability")
		}
	})
	if in.err != nil {
		return fmt.Errorf("initialize %s: %w", name, in.err)
	}
	return nil
}
