// Package consumer implements the consumer loop: durable consumer-group
// membership on one stream, startup reclamation of stalled entries via
// auto-claim, a long-polling main read, and dispatch into the attempt
// executor. Built on native Redis Streams consumer-group primitives
// (XGroupCreateMkStream/XReadGroup/XAutoClaim) rather than a
// custom failed-message sorted set, to fit this system's two-tier stream
// topology and staged retry/dead-letter pipeline.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/email4-dev/mailer/internal/codec"
	"github.com/email4-dev/mailer/internal/domain"
	"github.com/email4-dev/mailer/internal/executor"
	"github.com/email4-dev/mailer/internal/reaper"
	"github.com/email4-dev/mailer/internal/retry"
	"github.com/email4-dev/mailer/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

// Config binds a Loop to one of the two operating modes: one built for
// "messages"/mailer-group, one for "retry_queue"/retrier-group.
type Config struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	Mode          domain.Mode
	IdleThreshold time.Duration
	BatchSize     int64
	BlockFor      time.Duration
	// MaxConcurrentRetries bounds the number of suspended-then-dispatched
	// retry tasks alive at once, so a burst of scheduled retries can't grow
	// goroutines and held connections without bound. Ignored in primary
	// mode, where dispatch is always sequential.
	MaxConcurrentRetries int
}

// Loop is the long-running per-process consumer. Client is the dedicated
// blocking-read connection; SideState wraps the second, command-issuing
// connection and is also the Executor's collaborator, so XAck/XAdd issued
// mid-block never contend with the blocking XReadGroup call on the same
// connection.
type Loop struct {
	Client    *redis.Client
	SideState domain.SideStateStore
	Reaper    *reaper.Reaper
	Executor  *executor.Executor
	Scheduler retry.Scheduler
	Log       logger.Logger
	Cfg       Config

	retrySlots *semaphore.Weighted
}

// New builds a Loop ready to Run. retrySlots bounds how many suspended-then-
// dispatched retry tasks can be alive at once; ignored in primary mode.
func New(client *redis.Client, sideState domain.SideStateStore, reap *reaper.Reaper, exec *executor.Executor, sched retry.Scheduler, log logger.Logger, cfg Config) *Loop {
	limit := int64(cfg.MaxConcurrentRetries)
	if limit <= 0 {
		limit = 100
	}
	return &Loop{
		Client:     client,
		SideState:  sideState,
		Reaper:     reap,
		Executor:   exec,
		Scheduler:  sched,
		Log:        log,
		Cfg:        cfg,
		retrySlots: semaphore.NewWeighted(limit),
	}
}

// Run executes the consumer protocol until ctx is cancelled. Group creation
// and startup reclamation happen once; the main read loop then runs until
// cancellation. Errors from a single malformed batch never abort the loop:
// Run only returns on an unrecoverable group-setup failure.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.ensureGroup(ctx); err != nil {
		return err
	}

	if err := l.reclaimStalled(ctx); err != nil {
		l.Log.WithField("error", err.Error()).Warn("startup reclamation failed; continuing to main read loop")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := l.readOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.Log.WithField("error", err.Error()).Error("stream read failed; retrying")
		}
	}
}

// ensureGroup creates the consumer group anchored at sequence 0. An
// already-existing group (BUSYGROUP) is not an error.
func (l *Loop) ensureGroup(ctx context.Context) error {
	err := l.Client.XGroupCreateMkStream(ctx, l.Cfg.Stream, l.Cfg.ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", l.Cfg.ConsumerGroup, l.Cfg.Stream, err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// reclaimStalled auto-claims entries idle longer than Cfg.IdleThreshold,
// starting from sequence 0-0, and dispatches each as if freshly read. It
// pages through XAutoClaim until the cursor returns to 0-0 or a page comes
// back empty.
func (l *Loop) reclaimStalled(ctx context.Context) error {
	cursor := "0-0"
	for {
		msgs, next, err := l.Client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   l.Cfg.Stream,
			Group:    l.Cfg.ConsumerGroup,
			Consumer: l.Cfg.ConsumerName,
			MinIdle:  l.Cfg.IdleThreshold,
			Start:    cursor,
			Count:    l.Cfg.BatchSize,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return fmt.Errorf("auto-claim failed: %w", err)
		}

		for _, msg := range msgs {
			l.dispatch(ctx, msg)
		}

		if next == "0-0" || len(msgs) == 0 {
			return nil
		}
		cursor = next
	}
}

// readOnce long-polls for new entries (read marker ">": only entries never
// delivered to this group) and dispatches each.
func (l *Loop) readOnce(ctx context.Context) error {
	streams, err := l.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    l.Cfg.ConsumerGroup,
		Consumer: l.Cfg.ConsumerName,
		Streams:  []string{l.Cfg.Stream, ">"},
		Count:    l.Cfg.BatchSize,
		Block:    l.Cfg.BlockFor,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from %s: %w", l.Cfg.Stream, err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			l.dispatch(ctx, msg)
		}
	}
	return nil
}

// dispatch decodes one entry and routes it to the Executor, or to the
// decode-failure cleanup path. In primary mode dispatch blocks until the
// Executor finishes, processing the batch strictly sequentially. In retry
// mode it spawns a bounded concurrent task that first sleeps the scheduled
// delay.
func (l *Loop) dispatch(ctx context.Context, raw redis.XMessage) {
	values := toStringMap(raw.Values)
	msg, err := codec.Decode(raw.ID, values)
	if err != nil {
		l.handleMalformed(ctx, raw.ID, values, err)
		return
	}

	if l.Cfg.Mode == domain.ModePrimary {
		l.Executor.Execute(ctx, msg, domain.ModePrimary, l.Cfg.Stream)
		return
	}

	delay := l.Scheduler.Delay(msg.FailCount)
	if err := l.retrySlots.Acquire(ctx, 1); err != nil {
		return
	}
	go func() {
		defer l.retrySlots.Release(1)
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
		l.Executor.Execute(ctx, msg, domain.ModeRetry, l.Cfg.Stream)
	}()
}

// handleMalformed routes a raw entry that failed decoding straight to
// dead-lettering without ever reaching the Executor. Attachments are reaped
// using whatever attachment_count can be salvaged, the raw payload is
// dead-lettered, the dedup key is deleted, and the stream entry is
// acknowledged and removed.
func (l *Loop) handleMalformed(ctx context.Context, entryID string, values map[string]string, decodeErr error) {
	hex := values["hex"]
	l.Log.WithField("entry_id", entryID).WithField("error", decodeErr.Error()).Warn("malformed stream entry; dead-lettering")

	rec := domain.FailedEntryRecord{
		ID:              domain.NewFailedEntryID(),
		Hex:             hex,
		FormID:          values["form_id"],
		Origin:          values["origin"],
		Fields:          values["fields"],
		AttachmentCount: codec.SalvageAttachmentCount(values),
		Error:           fmt.Sprintf("decode failed: %v", decodeErr),
	}
	if err := l.SideState.AppendFailed(ctx, rec); err != nil {
		l.Log.WithField("entry_id", entryID).WithField("error", err.Error()).Warn("side-effect-loss: dead-letter append failed")
	}

	if hex != "" {
		l.Reaper.Reap(ctx, hex)
		if err := l.SideState.DeleteDedup(ctx, hex); err != nil {
			l.Log.WithField("entry_id", entryID).WithField("error", err.Error()).Warn("side-effect-loss: dedup delete failed")
		}
	}

	if err := l.SideState.AckAndRemove(ctx, l.Cfg.Stream, entryID); err != nil {
		l.Log.WithField("entry_id", entryID).WithField("error", err.Error()).Warn("side-effect-loss: ack/remove failed")
	}
}

func toStringMap(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []byte:
			out[k] = string(val)
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
