package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Config holds the relay's resolved environment. Endpoint defaults match the
// documented backend ports: 4545 (broadcast PUB), 4546 (announcement PULL),
// 4646 (request/reply REP).
type Config struct {
	PubHost      string `env:"ZEROMQ_PUB_HOST,default=localhost"`
	PubPort      int    `env:"ZEROMQ_PUB_PORT,default=4545"`
	PullHost     string `env:"ZEROMQ_PULL_HOST,default=localhost"`
	PullPort     int    `env:"ZEROMQ_PULL_PORT,default=4546"`
	ReqReplyHost string `env:"ZEROMQ_REQ_REPLY_HOST,default=localhost"`
	ReqReplyPort int    `env:"ZEROMQ_REQ_REPLY_PORT,default=4646"`

	// Optional per-service exchange endpoints, e.g.
	// "time=localhost:4647,weather=localhost:4648". Unlisted services fall
	// back to the request/reply endpoint above.
	ServiceAddrs string `env:"ZEROMQ_SERVICE_ADDRS"`

	Port     string `env:"PORT,default=3000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	ExchangeTimeout   time.Duration `env:"EXCHANGE_TIMEOUT,default=5s"`
	SessionBufferSize int           `env:"SESSION_BUFFER_SIZE,default=32"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	FeedDialAttempts  int           `env:"FEED_DIAL_ATTEMPTS,default=10"`

	// Directory served at /; leave empty to disable static file serving.
	StaticDir string `env:"STATIC_DIR"`
}

func (c Config) SubscribeAddr() string {
	return fmt.Sprintf("tcp://%s:%d", c.PubHost, c.PubPort)
}

func (c Config) PushAddr() string {
	return fmt.Sprintf("tcp://%s:%d", c.PullHost, c.PullPort)
}

func (c Config) ReqReplyAddr() string {
	return fmt.Sprintf("tcp://%s:%d", c.ReqReplyHost, c.ReqReplyPort)
}

// ServiceOverrides parses ServiceAddrs into service -> tcp endpoint.
// Malformed entries are skipped rather than failing startup.
func (c Config) ServiceOverrides() map[string]string {
	pairs := lo.Filter(strings.Split(c.ServiceAddrs, ","), func(p string, _ int) bool {
		return strings.Contains(p, "=")
	})
	return lo.SliceToMap(pairs, func(p string) (string, string) {
		name, addr, _ := strings.Cut(p, "=")
		return strings.TrimSpace(name), "tcp://" + strings.TrimSpace(addr)
	})
}
