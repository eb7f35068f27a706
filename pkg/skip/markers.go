package skip

import (
	"context"
	"sync"

	"github.com/paul-cloud-game-backend/capprobe/pkg/capability"
	"github.com/paul-cloud-game-backend/capprobe/pkg/config"
	"github.com/paul-cloud-game-backend/capprobe/pkg/envinfo"
	"github.com/paul-cloud-game-backend/capprobe/pkg/logging"
)

var (
	platformRules = sync.OnceValues(func() (Rule, Rule) {
		p := envinfo.CurrentPlatform()
		return Is32Bit(p), IsWindows(p)
	})

	processLocale = sync.OnceValue(envinfo.ProcessLocale)

	defaultRegistry = sync.OnceValue(func() *capability.Registry {
		cfg, err := config.Load()
		logger := logging.New(cfg.AppName, cfg.Env, cfg.LogLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid capprobe configuration, probes may fail")
		}
		return capability.NewDefault(cfg, logger)
	})
)

// Default returns the process-wide registry built from the environment on
// first use.
func Default() *capability.Registry {
	return defaultRegistry()
}

// ProcessLocale is the locale of the test process, read once.
func ProcessLocale() envinfo.Locale {
	return processLocale()
}

// If32Bit skips t on 32-bit platforms.
func If32Bit(t TB) {
	t.Helper()
	bit32, _ := platformRules()
	bit32.Apply(t)
}

// IfWindows skips t on Windows.
func IfWindows(t TB) {
	t.Helper()
	_, windows := platformRules()
	windows.Apply(t)
}

// IfHasLocale skips t when loc names a specific locale. Pass
// ProcessLocale() to check the ambient environment.
func IfHasLocale(t TB, loc envinfo.Locale) {
	t.Helper()
	HasLocale(loc).Apply(t)
}

// IfNotUSLocale skips t unless loc is en_US.
func IfNotUSLocale(t TB, loc envinfo.Locale) {
	t.Helper()
	NotUSLocale(loc).Apply(t)
}

// IfNo skips t when the named capability in the default registry is
// missing or older than minVersion.
func IfNo(t TB, name, minVersion string) {
	t.Helper()
	IfUnavailable(context.Background(), Default(), name, minVersion).Apply(t)
}

// IfNoDocker skips t unless a docker daemon is reachable.
func IfNoDocker(t TB) {
	t.Helper()
	IfNo(t, capability.NameDocker, "")
}

// IfNoGit skips t unless git is installed. Otherwise it puts git into
// non-interactive mode for the rest of the process.
func IfNoGit(t TB) {
	t.Helper()
	IfNo(t, capability.NameGit, "")
	_ = Default().Initialize(context.Background(), capability.NameGit)
}

// IfNoPostgres skips t unless POSTGRES_URL answers a ping.
func IfNoPostgres(t TB) {
	t.Helper()
	IfNo(t, capability.NamePostgres, "")
}

// IfNoRedis skips t unless REDIS_ADDR answers a ping.
func IfNoRedis(t TB) {
	t.Helper()
	IfNo(t, capability.NameRedis, "")
}

// IfNoNATS skips t unless NATS_URL accepts a connection.
func IfNoNATS(t TB) {
	t.Helper()
	IfNo(t, capability.NameNATS, "")
}
