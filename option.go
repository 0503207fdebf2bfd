package paygate

import (
	"time"

	"github.com/scrapeway/paygate/logger"
	"github.com/scrapeway/paygate/metrics"
	"github.com/scrapeway/paygate/replay"
	"github.com/scrapeway/paygate/verification"
)

type Option func(*Paygate)

func WithLogger(l logger.Logger) Option {
	return func(p *Paygate) {
		p.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *Paygate) {
		p.metrics = r
	}
}

// WithTimeout bounds each verification attempt's chain query.
func WithTimeout(t time.Duration) Option {
	return func(p *Paygate) {
		p.timeout = t
	}
}

// WithRetryPolicy overrides the retry policy for transient RPC failures.
func WithRetryPolicy(retry verification.RetryPolicy) Option {
	return func(p *Paygate) {
		p.retry = retry
	}
}

// WithReplayStore backs the replay guard with an external store, e.g.
// replay.NewRedisStore for multi-instance deployments.
func WithReplayStore(store replay.Store) Option {
	return func(p *Paygate) {
		p.guard = replay.NewGuard(store)
	}
}

// WithRetention sets how long consumed references are kept in the default
// in-memory replay store. Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(p *Paygate) {
		p.retention = d
	}
}
