package capability

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/paul-cloud-game-backend/capprobe/pkg/config"
)

// Names of the capabilities every default registry knows about.
const (
	NameDocker   = "docker"
	NameGit      = "git"
	NameGo       = "go"
	NamePostgres = "postgres"
	NameRedis    = "redis"
	NameNATS     = "nats"
)

// NewDefault builds a registry with the standard checks wired to the
// addresses in cfg, plus one binary check per cfg.Binaries entry.
func NewDefault(cfg config.Config, logger zerolog.Logger) *Registry {
	r := NewRegistry(logger, WithTimeout(cfg.ProbeTimeout))
	r.MustRegister(NameDocker, Docker())
	r.MustRegister(NameGit, Binary("git", "--version"))
	r.MustRegister(NameGo, GoToolchain())
	r.MustRegister(NamePostgres, Postgres(cfg.PostgresURL))
	r.MustRegister(NameRedis, Redis(cfg.RedisAddr))
	r.MustRegister(NameNATS, NATS(cfg.NATSURL))
	for _, bin := range cfg.Binaries {
		if err := r.Register(bin, Binary(bin, "--version")); err != nil {
			logger.Warn().Err(err).Msg("skipping extra binary")
		}
	}

	r.OnInit(NameGit, func(context.Context, Result) error {
		return os.Setenv("GIT_TERMINAL_PROMPT", "0")
	})
	return r
}
