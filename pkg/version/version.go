// Package version implements loose version ordering for tool and server
// version strings that do not follow strict semantic versioning.
package version

import (
	"regexp"
	"strings"
)

var (
	componentRE = regexp.MustCompile(`\d+|[A-Za-z]+`)
	extractRE   = regexp.MustCompile(`\d+(?:\.[0-9A-Za-z]+)+|\d+`)
)

// component holds one run of digits or letters. Numeric runs keep their
// digits without leading zeros so that arbitrarily long numbers compare
// without overflow.
type component struct {
	text  string
	isNum bool
}

func parse(s string) []component {
	s = trimPrefix(strings.TrimSpace(s))
	parts := componentRE.FindAllString(s, -1)
	out := make([]component, 0, len(parts))
	for _, p := range parts {
		if p[0] >= '0' && p[0] <= '9' {
			out = append(out, component{text: strings.TrimLeft(p, "0"), isNum: true})
			continue
		}
		out = append(out, component{text: strings.ToLower(p)})
	}
	return out
}

// trimPrefix drops a "v" or "go" marker sitting directly before the first digit.
func trimPrefix(s string) string {
	for _, prefix := range []string{"go", "v", "V"} {
		rest, ok := strings.CutPrefix(s, prefix)
		if ok && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return rest
		}
	}
	return s
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. Numeric components compare numerically; any other pairing
// falls back to lexical order. When one version is a prefix of the other
// the shorter one sorts first.
func Compare(a, b string) int {
	ca, cb := parse(a), parse(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if c := compareComponent(ca[i], cb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return 0
}

func compareComponent(a, b component) int {
	if a.isNum && b.isNum {
		switch {
		case len(a.text) < len(b.text):
			return -1
		case len(a.text) > len(b.text):
			return 1
		}
	}
	return strings.Compare(a.text, b.text)
}

// AtLeast reports whether v is greater than or equal to min.
func AtLeast(v, min string) bool {
	return Compare(v, min) >= 0
}

// Between reports whether low <= v <= high. An empty bound is open.
func Between(v, low, high string) bool {
	if low != "" && Compare(v, low) < 0 {
		return false
	}
	if high != "" && Compare(v, high) > 0 {
		return false
	}
	return true
}

// Extract returns the first version-like token in text, such as the
// "24.0.7" in "Docker version 24.0.7, build afdd53b". It returns "" when
// nothing resembling a version is present.
func Extract(text string) string {
	return extractRE.FindString(text)
}
