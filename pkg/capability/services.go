package capability

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paul-cloud-game-backend/capprobe/pkg/bus"
	"github.com/paul-cloud-game-backend/capprobe/pkg/storage"
	"github.com/paul-cloud-game-backend/capprobe/pkg/version"
)

// Postgres pings the database at dsn and reports its server_version.
func Postgres(dsn string) Check {
	return func(ctx context.Context) (Info, error) {
		db, err := storage.NewPostgres(dsn)
		if err != nil {
			return Info{}, err
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return Info{}, fmt.Errorf("ping postgres: %w", err)
		}
		info := Info{Location: redactDSN(dsn)}
		var raw string
		if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&raw); err == nil {
			info.Version = version.Extract(raw)
		}
		return info, nil
	}
}

// Redis pings the server at addr and reports redis_version from INFO.
func Redis(addr string) Check {
	return func(ctx context.Context) (Info, error) {
		client := storage.NewRedis(addr)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return Info{}, fmt.Errorf("ping redis: %w", err)
		}
		info := Info{Location: addr}
		if raw, err := client.Info(ctx, "server").Result(); err == nil {
			info.Version = infoField(raw, "redis_version")
		}
		return info, nil
	}
}

// NATS connects to url and reports the version the server announced.
func NATS(url string) Check {
	return func(ctx context.Context) (Info, error) {
		timeout := defaultTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		nc, err := bus.Connect(url, timeout)
		if err != nil {
			return Info{}, fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		return Info{Location: nc.ConnectedUrlRedacted(), Version: nc.ConnectedServerVersion()}, nil
	}
}

// infoField extracts key from a Redis INFO reply.
func infoField(raw, key string) string {
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if ok && k == key {
			return v
		}
	}
	return ""
}

// redactDSN hides the password of a postgres URL.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
