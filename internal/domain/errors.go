package domain

import "errors"

// ErrFormNotFound is returned by a FormStore when form_id has no record.
var ErrFormNotFound = errors.New("form not found")

// ErrMaxRetriesReached signals the retry branch hit MAILER_RETRIES and the
// Message should be dead-lettered instead of re-enqueued.
var ErrMaxRetriesReached = errors.New("max retries reached")
