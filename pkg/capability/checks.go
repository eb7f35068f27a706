package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/paul-cloud-game-backend/capprobe/pkg/version"
)

// Binary locates an executable on PATH. When versionArgs are given the
// executable is run with them and the first version-like token of its
// output is reported; a failing run still counts as available, just
// without a version.
func Binary(name string, versionArgs ...string) Check {
	return func(ctx context.Context) (Info, error) {
		path, err := exec.LookPath(name)
		if err != nil {
			return Info{}, fmt.Errorf("%s not found in PATH: %w", name, err)
		}
		info := Info{Location: path}
		if len(versionArgs) == 0 {
			return info, nil
		}
		out, err := exec.CommandContext(ctx, path, versionArgs...).CombinedOutput()
		if err != nil {
			return info, nil
		}
		info.Version = version.Extract(string(out))
		return info, nil
	}
}

// Docker requires both the docker CLI and a reachable daemon, and reports
// the daemon's version.
func Docker() Check {
	return func(ctx context.Context) (Info, error) {
		path, err := exec.LookPath("docker")
		if err != nil {
			return Info{}, fmt.Errorf("docker CLI not found: %w", err)
		}
		out, err := exec.CommandContext(ctx, path, "version", "--format", "{{.Server.Version}}").CombinedOutput()
		if err != nil {
			return Info{}, fmt.Errorf("docker unavailable: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return Info{Location: path, Version: version.Extract(string(out))}, nil
	}
}

// GoToolchain reports the Go release the binary was compiled with.
func GoToolchain() Check {
	return func(context.Context) (Info, error) {
		return Info{Location: runtime.GOOS + "/" + runtime.GOARCH, Version: strings.TrimPrefix(runtime.Version(), "go")}, nil
	}
}

// Env treats a non-empty environment variable as an opt-in switch, e.g.
// RUN_AI_TESTS=1. The value is reported as the version.
func Env(name string) Check {
	return func(context.Context) (Info, error) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return Info{}, fmt.Errorf("%s is not set", name)
		}
		return Info{Location: "$" + name, Version: v}, nil
	}
}

// Static always reports the given version. It is useful as a stand-in in
// tests and for capabilities known at build time.
func Static(v string) Check {
	return func(context.Context) (Info, error) {
		return Info{Location: "static", Version: v}, nil
	}
}

// Missing always reports the capability as absent.
func Missing(reason string) Check {
	return func(context.Context) (Info, error) {
		return Info{}, errors.New(reason)
	}
}
