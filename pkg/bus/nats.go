package bus

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Connect creates a NATS connection that fails fast instead of retrying.
func Connect(url string, timeout time.Duration) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("capprobe"),
		nats.Timeout(timeout),
		nats.NoReconnect(),
	)
}
