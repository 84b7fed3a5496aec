package sidestate

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/email4-dev/mailer/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "mailer-group"), client
}

func TestDeleteDedup(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "streams:a1", "1", 0).Err())

	require.NoError(t, store.DeleteDedup(ctx, "a1"))

	exists, err := client.Exists(ctx, "streams:a1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestDeleteDedup_EmptyHexNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.DeleteDedup(context.Background(), ""))
}

func TestLoadAttachments_Missing(t *testing.T) {
	store, _ := newTestStore(t)
	manifest, err := store.LoadAttachments(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, manifest)
}

func TestLoadAttachments_Present(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, client.HSet(ctx, "attachments:a1", "files",
		`[{"Name":"f","Key":"k1","Filename":"f.pdf"}]`).Err())

	manifest, err := store.LoadAttachments(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, manifest)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, "k1", manifest.Files[0].Key)
}

func TestDeleteAttachmentsEntry(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, client.HSet(ctx, "attachments:a1", "files", "[]").Err())

	require.NoError(t, store.DeleteAttachmentsEntry(ctx, "a1"))

	exists, err := client.Exists(ctx, "attachments:a1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestAppendFailed(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendFailed(ctx, domain.FailedEntryRecord{
		Hex: "a1", FormID: "F", Origin: "web", Error: "form not found",
	}))

	length, err := client.LLen(ctx, "failed").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, length)

	raw, err := client.LIndex(ctx, "failed", 0).Result()
	require.NoError(t, err)
	assert.Contains(t, raw, "form not found")
}

func TestAckAndRemove(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, client.XGroupCreateMkStream(ctx, "messages", "mailer-group", "0").Err())
	id, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "messages", Values: map[string]interface{}{"hex": "a1"}}).Result()
	require.NoError(t, err)
	_, err = client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group: "mailer-group", Consumer: "mailer-1", Streams: []string{"messages", ">"}, Count: 1,
	}).Result()
	require.NoError(t, err)

	require.NoError(t, store.AckAndRemove(ctx, "messages", id))

	length, err := client.XLen(ctx, "messages").Result()
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestEnqueueRetry_AutoAssignsID(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	newID, err := store.EnqueueRetry(ctx, "retry_queue", "5-0", map[string]string{
		"hex": "a1", "fail_count": "1", "original_id": "5-0",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "5-0", newID)

	msgs, err := client.XRange(ctx, "retry_queue", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "5-0", msgs[0].Values["original_id"])
}

func TestPing(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
