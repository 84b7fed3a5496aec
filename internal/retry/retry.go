// Package retry computes the per-attempt delay gating retry-mode execution.
package retry

import "time"

// Scheduler holds the two retry-tuning knobs from the configuration table:
// RETRY_INTERVAL (base minutes) and MAILER_RETRIES (the fail_count cap).
type Scheduler struct {
	BaseIntervalMinutes int
	MaxRetries          int
}

// Delay returns how long the Consumer Loop must suspend a retry-mode task
// before invoking the Executor: fail_count × BASE_INTERVAL_MINUTES,
// linear, not exponential. In primary mode the caller never calls this —
// the delay there is always zero.
func (s Scheduler) Delay(failCount int) time.Duration {
	return time.Duration(failCount) * time.Duration(s.BaseIntervalMinutes) * time.Minute
}

// ExceedsMax reports whether the next fail_count (prior + 1) would exceed
// MAILER_RETRIES, meaning the Executor's retry branch must dead-letter
// instead of enqueuing another retry.
func (s Scheduler) ExceedsMax(nextFailCount int) bool {
	return nextFailCount > s.MaxRetries
}
