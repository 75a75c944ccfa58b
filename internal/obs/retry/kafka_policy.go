package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultPublishPolicy is used for best-effort event publishing: a few quick
// attempts, never longer than a request should wait.
func DefaultPublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "kafka_publish",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("publish retries exhausted", zap.Error(err))
			}
		},
	}
}

// DefaultRelayPolicy backs the outbox relay, which runs off the request path
// and can afford to wait longer than a publish made inline.
func DefaultRelayPolicy(log *zap.Logger) Policy {
	p := DefaultPublishPolicy(log)
	p.Name = "outbox_relay"
	p.Attempts = 5
	p.Backoff = ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2}
	return p
}
