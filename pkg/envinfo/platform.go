// Package envinfo answers questions about the host a test is running on.
package envinfo

import "runtime"

// Platform identifies an operating system and CPU architecture pair.
type Platform struct {
	GOOS   string
	GOARCH string
}

// CurrentPlatform returns the platform the binary was built for.
func CurrentPlatform() Platform {
	return Platform{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

var arch32 = map[string]bool{
	"386":      true,
	"arm":      true,
	"armbe":    true,
	"mips":     true,
	"mipsle":   true,
	"ppc":      true,
	"s390":     true,
	"sparc":    true,
	"amd64p32": true,
}

// Is32Bit reports whether pointers on this platform are 32 bits wide.
func (p Platform) Is32Bit() bool {
	return arch32[p.GOARCH]
}

// IsWindows reports whether the platform is Windows.
func (p Platform) IsWindows() bool {
	return p.GOOS == "windows"
}

func (p Platform) String() string {
	return p.GOOS + "/" + p.GOARCH
}
