// Package sidestate implements domain.SideStateStore on top of Redis: dedup
// keys, attachment manifests, the dead-letter list, and the stream
// ack/enqueue operations the Attempt Executor needs. Built on consumer-group
// XADD/XACK/XDEL wiring plus a SETNX-style dedup pattern, adapted to the
// flat key/value stream-entry schema and dedup/manifest/dead-letter keyspace
// this system uses.
package sidestate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Key prefixes for the dedup/attachment/dead-letter keyspace.
const (
	dedupKeyPrefix       = "streams:"
	attachmentsKeyPrefix = "attachments:"
	attachmentsField     = "files"
	failedListKey        = "failed"
)

// Store is the command-side Redis connection: every SideStateStore
// operation except the Consumer Loop's blocking stream read goes through
// here, keeping command traffic off the connection dedicated to the
// blocking read.
type Store struct {
	client        *redis.Client
	consumerGroup string
}

// New builds a Store bound to consumerGroup, the group XAck needs to credit
// acknowledgement to. A process runs exactly one Mode, so one group per
// Store instance is always correct.
func New(client *redis.Client, consumerGroup string) *Store {
	return &Store{client: client, consumerGroup: consumerGroup}
}

func dedupKey(hex string) string       { return dedupKeyPrefix + hex }
func attachmentsKey(hex string) string { return attachmentsKeyPrefix + hex }

// DeleteDedup removes the streams:<hex> presence marker.
func (s *Store) DeleteDedup(ctx context.Context, hex string) error {
	if hex == "" {
		return nil
	}
	if err := s.client.Del(ctx, dedupKey(hex)).Err(); err != nil {
		return fmt.Errorf("failed to delete dedup key for %q: %w", hex, err)
	}
	return nil
}

// LoadAttachments reads the attachments:<hex> hash's "files" field and
// decodes it. A missing key returns (nil, nil): most messages carry none.
func (s *Store) LoadAttachments(ctx context.Context, hex string) (*domain.AttachmentManifest, error) {
	raw, err := s.client.HGet(ctx, attachmentsKey(hex), attachmentsField).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment manifest for %q: %w", hex, err)
	}

	var files []domain.AttachmentRef
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return nil, fmt.Errorf("failed to decode attachment manifest for %q: %w", hex, err)
	}
	return &domain.AttachmentManifest{Hex: hex, Files: files}, nil
}

// DeleteAttachmentsEntry removes the whole attachments:<hex> hash.
func (s *Store) DeleteAttachmentsEntry(ctx context.Context, hex string) error {
	if err := s.client.Del(ctx, attachmentsKey(hex)).Err(); err != nil {
		return fmt.Errorf("failed to delete attachment manifest for %q: %w", hex, err)
	}
	return nil
}

// AppendFailed pushes rec onto the append-only "failed" list.
func (s *Store) AppendFailed(ctx context.Context, rec domain.FailedEntryRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode dead-letter record for %q: %w", rec.Hex, err)
	}
	if err := s.client.RPush(ctx, failedListKey, blob).Err(); err != nil {
		return fmt.Errorf("failed to append dead-letter record for %q: %w", rec.Hex, err)
	}
	return nil
}

// AckAndRemove acknowledges entryID against this Store's consumer group,
// then deletes it from stream. Ack is attempted first so a crash between
// the two leaves the entry acknowledged (never redelivered) but still stored
// in the stream, rather than deleted yet still pending in the group.
func (s *Store) AckAndRemove(ctx context.Context, stream string, entryID string) error {
	if err := s.client.XAck(ctx, stream, s.consumerGroup, entryID).Err(); err != nil {
		return fmt.Errorf("failed to ack entry %s on %s: %w", entryID, stream, err)
	}
	if err := s.client.XDel(ctx, stream, entryID).Err(); err != nil {
		return fmt.Errorf("failed to delete entry %s from %s: %w", entryID, stream, err)
	}
	return nil
}

// EnqueueRetry appends payload to stream with an auto-assigned id ("*").
// originalID is not reused as the new entry's id: XADD rejects an explicit
// id that isn't greater than the stream's last id, which the original id
// from a different stream is not guaranteed to satisfy. Correlation to the
// original entry travels in the payload's "original_id" field instead (see
// codec.EncodeRetryPayload).
func (s *Store) EnqueueRetry(ctx context.Context, stream string, originalID string, payload map[string]string) (string, error) {
	values := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		values[k] = v
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue retry for original entry %s on %s: %w", originalID, stream, err)
	}
	return id, nil
}

// Ping verifies the connection is alive, for internal/health.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection (lifecycle shutdown step).
func (s *Store) Close() error {
	return s.client.Close()
}
