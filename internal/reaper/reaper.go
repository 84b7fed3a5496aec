// Package reaper implements attachment cleanup: given a hex, it loads the
// attachment manifest, bulk-deletes the referenced object-store blobs, then
// deletes the manifest entry. Failures here never block Message
// termination — they are logged as side-effect-loss and left for upstream
// garbage collection to retry.
package reaper

import (
	"context"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/email4-dev/mailer/pkg/logger"
)

type Reaper struct {
	SideState domain.SideStateStore
	Objects   domain.AttachmentStore
	Log       logger.Logger
}

// Reap deletes every blob in hex's attachment manifest and the manifest
// entry itself. A missing manifest is not an error — plenty of messages
// carry no attachments at all.
func (r *Reaper) Reap(ctx context.Context, hex string) {
	manifest, err := r.SideState.LoadAttachments(ctx, hex)
	if err != nil {
		r.Log.WithField("hex", hex).WithField("error", err.Error()).Warn("side-effect-loss: load attachment manifest failed")
		return
	}
	if manifest == nil || len(manifest.Files) == 0 {
		return
	}

	keys := make([]string, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		keys = append(keys, f.Key)
	}

	if err := r.Objects.DeleteObjects(ctx, keys); err != nil {
		r.Log.WithField("hex", hex).WithField("error", err.Error()).Warn("side-effect-loss: attachment blob deletion failed")
	}

	if err := r.SideState.DeleteAttachmentsEntry(ctx, hex); err != nil {
		r.Log.WithField("hex", hex).WithField("error", err.Error()).Warn("side-effect-loss: attachment manifest deletion failed")
	}
}
