package domain

import "context"

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/email4-dev/mailer/internal/domain Renderer,Sender,FormStore,AttachmentStore,SideStateStore

// Renderer turns a form record and its submitted fields into a deliverable
// mail. attachmentURL is empty unless the message carries attachments.
// Render errors are always terminal for the Message.
type Renderer interface {
	Render(ctx context.Context, form *FormRecord, fields []Field, origin string, attachmentURL string) (*RenderedMail, error)
}

// Sender delivers a rendered mail and classifies the outcome. clientMessageID
// is the hex correlation id, propagated so downstream systems can dedup.
//
// ok == true is success. ok == false with err == nil is a transient failure
// (retry eligible). err != nil is a permanent failure (no retry).
type Sender interface {
	Send(ctx context.Context, mail *RenderedMail, clientMessageID string) (ok bool, err error)
}

// FormStore is a read-only lookup of form metadata by form identifier.
type FormStore interface {
	GetForm(ctx context.Context, formID string) (*FormRecord, error)
}

// AttachmentStore deletes attachment blobs by key from the object store.
type AttachmentStore interface {
	DeleteObjects(ctx context.Context, keys []string) error
}

// SideStateStore is the side-band KV and dead-letter/stream-control
// surface. Operations are single-round-trip; callers must not assume
// cross-key transactions.
type SideStateStore interface {
	DeleteDedup(ctx context.Context, hex string) error
	LoadAttachments(ctx context.Context, hex string) (*AttachmentManifest, error)
	DeleteAttachmentsEntry(ctx context.Context, hex string) error
	AppendFailed(ctx context.Context, rec FailedEntryRecord) error
	AckAndRemove(ctx context.Context, stream string, entryID string) error
	EnqueueRetry(ctx context.Context, stream string, originalID string, payload map[string]string) (newID string, err error)
}
