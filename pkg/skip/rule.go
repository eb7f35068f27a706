// Package skip builds skip rules for tests that depend on optional tools,
// services, platforms or locales.
//
// A Rule is decided when it is built and can be applied to any number of
// tests:
//
//	var needsGit = skip.IfUnavailable(ctx, registry, "git", "2.30")
//
//	func TestClone(t *testing.T) {
//		needsGit.Apply(t)
//		...
//	}
//
// Setting CAPPROBE_SKIP_PRECONDITION_CHECKS=true makes every rule a no-op.
package skip

import (
	"context"
	"fmt"
	"strings"

	"github.com/paul-cloud-game-backend/capprobe/pkg/capability"
	"github.com/paul-cloud-game-backend/capprobe/pkg/config"
	"github.com/paul-cloud-game-backend/capprobe/pkg/envinfo"
	"github.com/paul-cloud-game-backend/capprobe/pkg/version"
)

// TB is the part of testing.TB a Rule needs.
type TB interface {
	Helper()
	Skip(args ...any)
}

// Prober is satisfied by *capability.Registry.
type Prober interface {
	Probe(ctx context.Context, name, minVersion string) capability.Result
}

// Rule pairs a skip condition with the reason reported to the test runner.
type Rule struct {
	Condition bool
	Reason    string
}

// If returns a Rule that skips when cond is true.
func If(cond bool, reason string) Rule {
	return Rule{Condition: cond, Reason: reason}
}

// Apply skips t when the rule's condition holds.
func (r Rule) Apply(t TB) {
	t.Helper()
	if r.Condition && !config.SkipPreconditions() {
		t.Skip(r.Reason)
	}
}

// Any returns the first rule whose condition holds, or a rule that never
// skips.
func Any(rules ...Rule) Rule {
	for _, r := range rules {
		if r.Condition {
			return r
		}
	}
	return Rule{}
}

// UnavailableReason is the skip reason used for a missing capability.
func UnavailableReason(name, minVersion string) string {
	msg := fmt.Sprintf("could not find '%s'", name)
	if minVersion != "" {
		msg += fmt.Sprintf(" satisfying a min_version of %s", minVersion)
	}
	return msg
}

// IfUnavailable probes name immediately and returns a Rule that skips when
// it is missing or older than minVersion.
func IfUnavailable(ctx context.Context, p Prober, name, minVersion string) Rule {
	res := p.Probe(ctx, name, minVersion)
	return If(!res.OK(), UnavailableReason(name, minVersion))
}

// IfAnyUnavailable skips when any of names is missing. The reason lists
// every missing capability.
func IfAnyUnavailable(ctx context.Context, p Prober, names ...string) Rule {
	var missing []string
	for _, name := range names {
		if !p.Probe(ctx, name, "").OK() {
			missing = append(missing, name)
		}
	}
	return If(len(missing) > 0, "missing requirement: "+strings.Join(missing, ", "))
}

// IfVersionOutside skips unless name is available with a version in
// [low, high]. An empty bound is open.
func IfVersionOutside(ctx context.Context, p Prober, name, low, high string) Rule {
	res := p.Probe(ctx, name, "")
	if !res.OK() {
		return If(true, UnavailableReason(name, low))
	}
	if res.Info.Version == "" {
		return If(true, fmt.Sprintf("%s did not report a version", name))
	}
	inRange := version.Between(res.Info.Version, low, high)
	return If(!inRange, fmt.Sprintf("%s %s is outside [%s, %s]", name, res.Info.Version, orAny(low), orAny(high)))
}

func orAny(bound string) string {
	if bound == "" {
		return "*"
	}
	return bound
}

// HasLocale skips when a specific locale is set.
func HasLocale(loc envinfo.Locale) Rule {
	return If(loc.IsSet(), fmt.Sprintf("specific locale is set: %s (%s)", loc.Language, loc.DisplayName()))
}

// NotUSLocale skips unless the locale is en_US.
func NotUSLocale(loc envinfo.Locale) Rule {
	return If(!loc.IsUS(), fmt.Sprintf("locale is %s (%s), not en_US", orNone(loc.Language), loc.DisplayName()))
}

func orNone(s string) string {
	if s == "" {
		return "unset"
	}
	return s
}

// Is32Bit skips on 32-bit platforms.
func Is32Bit(p envinfo.Platform) Rule {
	return If(p.Is32Bit(), "skipping for 32 bit ("+p.String()+")")
}

// IsWindows skips on Windows.
func IsWindows(p envinfo.Platform) Rule {
	return If(p.IsWindows(), "running on Windows")
}
