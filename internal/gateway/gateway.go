// Package gateway fronts the three AI capabilities (text generation, speech
// transcription, speech synthesis) with the call discipline every provider
// round trip must follow: a pending ledger row is written BEFORE the call, a
// commit and paired start/success|failure events follow it, and bounded
// retries wrap the whole unit so every attempt is auditable as its own row.
package gateway

import (
	"context"
	"time"

	"github.com/avast/retry-go"
)

// Defaults for the per-call retry policy.
const (
	defaultAttempts    = 3
	defaultCallTimeout = 60 * time.Second
)

// Config holds the shared gateway call policy.
type Config struct {
	// Attempts is the total number of attempts per call (1 = no retry).
	// Default: 3.
	Attempts uint

	// CallTimeout bounds each individual provider call. Default: 60s.
	CallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Attempts == 0 {
		c.Attempts = defaultAttempts
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	return c
}

// withRetry runs attempt up to attempts times with jittered backoff. Only
// transient errors retry; everything else fails fast. The attempt function
// owns its own ledger row and events, so retries stay individually auditable.
func withRetry(ctx context.Context, attempts uint, attempt func() error) error {
	return retry.Do(
		func() error {
			if err := attempt(); err != nil {
				if !transient(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// timeNow is stubbed in tests.
var timeNow = time.Now

// latencyMS returns elapsed wall time in whole milliseconds.
func latencyMS(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}
