// Package mode implements mode selection: at process start the --retrier
// flag picks one of two fixed bindings for stream name, consumer group,
// consumer name, reclamation idle threshold, and dispatch style. Built on
// the same flag-driven mode-switch pattern as an HTTP-vs-worker toggle,
// adapted here to a primary-vs-retrier one.
package mode

import (
	"fmt"
	"os"
	"time"

	"github.com/email4-dev/mailer/internal/consumer"
	"github.com/email4-dev/mailer/internal/domain"
)

const (
	// PrimaryStream and RetryStream are the two fixed stream names.
	PrimaryStream = "messages"
	RetryStream   = "retry_queue"

	primaryGroup = "mailer-group"
	retrierGroup = "retrier-group"

	// primaryIdleThreshold reclaims stalled primary entries after five
	// minutes of no acknowledgement; retryIdleThreshold is longer because a
	// retry task may be legitimately asleep for its whole scheduled delay
	// before it ever touches the stream again.
	primaryIdleThreshold = 5 * time.Minute
	retryIdleThreshold   = 90 * time.Minute
)

// Selector resolves the --retrier flag into a consumer.Config. BatchSize and
// BlockFor come from Config (CONSUMER_BATCH_SIZE/CONSUMER_BLOCK) and are
// shared across both modes; everything else is mode-fixed.
type Selector struct {
	Retrier              bool
	BatchSize            int64
	BlockFor             time.Duration
	MaxConcurrentRetries int
}

// Resolve builds the consumer.Config for this process, using pid to build a
// consumer name unique across concurrently running instances of the same
// mode ("mailer-<pid>" / "retrier-<pid>").
func (s Selector) Resolve() consumer.Config {
	pid := os.Getpid()
	if s.Retrier {
		return consumer.Config{
			Stream:               RetryStream,
			ConsumerGroup:        retrierGroup,
			ConsumerName:         fmt.Sprintf("retrier-%d", pid),
			Mode:                 domain.ModeRetry,
			IdleThreshold:        retryIdleThreshold,
			BatchSize:            s.BatchSize,
			BlockFor:             s.BlockFor,
			MaxConcurrentRetries: s.MaxConcurrentRetries,
		}
	}
	return consumer.Config{
		Stream:        PrimaryStream,
		ConsumerGroup: primaryGroup,
		ConsumerName:  fmt.Sprintf("mailer-%d", pid),
		Mode:          domain.ModePrimary,
		IdleThreshold: primaryIdleThreshold,
		BatchSize:     s.BatchSize,
		BlockFor:      s.BlockFor,
	}
}
