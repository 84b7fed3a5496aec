// Package executor implements the Attempt Executor: render, send,
// classify the outcome, and drive the cleanup/retry/dead-letter fan-out.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/email4-dev/mailer/internal/codec"
	"github.com/email4-dev/mailer/internal/domain"
	"github.com/email4-dev/mailer/internal/reaper"
	"github.com/email4-dev/mailer/internal/retry"
	"github.com/email4-dev/mailer/pkg/logger"
)

// Outcome is the terminal action the Executor took for one Message,
// exposed mainly so tests can assert on the exact branch taken.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryEnqueued
	OutcomeDeadLetteredFormNotFound
	OutcomeDeadLetteredRenderFailure
	OutcomeDeadLetteredSendPermanent
	OutcomeDeadLetteredMaxRetries
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryEnqueued:
		return "retry_enqueued"
	case OutcomeDeadLetteredFormNotFound:
		return "dead_lettered_form_not_found"
	case OutcomeDeadLetteredRenderFailure:
		return "dead_lettered_render_failure"
	case OutcomeDeadLetteredSendPermanent:
		return "dead_lettered_send_permanent"
	case OutcomeDeadLetteredMaxRetries:
		return "dead_lettered_max_retries"
	default:
		return "unknown"
	}
}

// RetryStreamName is the fixed stream name every enqueued retry lands on,
// regardless of which mode produced it.
const RetryStreamName = "retry_queue"

// Executor wires the form store, renderer, sender, side-state store, and
// attachment reaper together.
type Executor struct {
	Forms      domain.FormStore
	Renderer   domain.Renderer
	Sender     domain.Sender
	SideState  domain.SideStateStore
	Reaper     *reaper.Reaper
	Scheduler  retry.Scheduler
	Log        logger.Logger
	APIBaseURL string
}

// Execute runs the full attempt for one Message read from stream under
// mode, and returns the terminal Outcome. It never returns an error: all
// non-bootstrap errors are absorbed here so the Consumer Loop never aborts
// on a single bad entry.
func (e *Executor) Execute(ctx context.Context, msg *domain.Message, mode domain.Mode, stream string) Outcome {
	form, err := e.Forms.GetForm(ctx, msg.FormID)
	if err != nil {
		if !errors.Is(err, domain.ErrFormNotFound) {
			e.Log.WithField("hex", msg.Hex).WithField("form_id", msg.FormID).WithField("error", err.Error()).
				Error("form lookup failed; treating as not found")
		}
		e.appendFailed(ctx, msg, "form not found")
		e.cleanup(ctx, msg, stream, true, false, true)
		return OutcomeDeadLetteredFormNotFound
	}

	var mail *domain.RenderedMail
	if msg.Hex == domain.OTPHex {
		mail = synthesizeOTP(form, msg.Fields)
	} else {
		if err := form.Validate(); err != nil {
			e.appendFailed(ctx, msg, fmt.Sprintf("render failed: %v", err))
			e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, true)
			return OutcomeDeadLetteredRenderFailure
		}
		attachmentURL := ""
		if msg.AttachmentCount > 0 {
			attachmentURL = buildAttachmentURL(e.APIBaseURL, msg.Hex)
		}
		mail, err = e.Renderer.Render(ctx, form, msg.Fields, msg.Origin, attachmentURL)
		if err != nil {
			e.appendFailed(ctx, msg, fmt.Sprintf("render failed: %v", err))
			e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, true)
			return OutcomeDeadLetteredRenderFailure
		}
	}

	sent, err := e.Sender.Send(ctx, mail, msg.Hex)
	if err != nil {
		e.appendFailed(ctx, msg, fmt.Sprintf("send failed: %v", err))
		e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, true)
		return OutcomeDeadLetteredSendPermanent
	}
	if !sent {
		return e.retryBranch(ctx, msg, mode, stream, form)
	}

	e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, false)
	return OutcomeSuccess
}

func (e *Executor) retryBranch(ctx context.Context, msg *domain.Message, mode domain.Mode, stream string, form *domain.FormRecord) Outcome {
	if mode == domain.ModePrimary {
		e.enqueueRetry(ctx, msg, 1)
		e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, false)
		return OutcomeRetryEnqueued
	}

	next := msg.FailCount + 1
	if e.Scheduler.ExceedsMax(next) {
		e.appendFailed(ctx, msg, domain.ErrMaxRetriesReached.Error())
		e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, true)
		return OutcomeDeadLetteredMaxRetries
	}

	e.enqueueRetry(ctx, msg, next)
	e.cleanup(ctx, msg, stream, false, form.AllowDuplicates, false)
	return OutcomeRetryEnqueued
}

func (e *Executor) enqueueRetry(ctx context.Context, msg *domain.Message, failCount int) {
	payload, err := codec.EncodeRetryPayload(msg, failCount)
	if err != nil {
		e.Log.WithField("hex", msg.Hex).WithField("error", err.Error()).Error("failed to encode retry payload")
		return
	}
	if _, err := e.SideState.EnqueueRetry(ctx, RetryStreamName, msg.ID, payload); err != nil {
		e.Log.WithField("hex", msg.Hex).WithField("error", err.Error()).Error("failed to enqueue retry")
	}
}

func (e *Executor) appendFailed(ctx context.Context, msg *domain.Message, reason string) {
	rec := domain.FailedEntryRecord{
		ID:              domain.NewFailedEntryID(),
		Hex:             msg.Hex,
		FormID:          msg.FormID,
		Origin:          msg.Origin,
		Fields:          codec.EncodeFailedFields(msg.Fields),
		AttachmentCount: msg.AttachmentCount,
		Error:           reason,
	}
	if err := e.SideState.AppendFailed(ctx, rec); err != nil {
		e.Log.WithField("hex", msg.Hex).WithField("error", err.Error()).Warn("side-effect-loss: dead-letter append failed")
	}
}

// cleanup performs the terminal steps shared by every exit path.
// deleteDedupUnconditional is set only for the form-not-found path, where
// there is no form record to check allow_duplicates against.
func (e *Executor) cleanup(ctx context.Context, msg *domain.Message, stream string, deleteDedupUnconditional bool, allowDuplicates bool, reap bool) {
	if deleteDedupUnconditional || !allowDuplicates {
		if err := e.SideState.DeleteDedup(ctx, msg.Hex); err != nil {
			e.Log.WithField("hex", msg.Hex).WithField("error", err.Error()).Warn("side-effect-loss: dedup delete failed")
		}
	}
	if reap {
		e.Reaper.Reap(ctx, msg.Hex)
	}
	if err := e.SideState.AckAndRemove(ctx, stream, msg.ID); err != nil {
		e.Log.WithField("hex", msg.Hex).WithField("error", err.Error()).Warn("side-effect-loss: ack/remove failed")
	}
}

// synthesizeOTP builds the fixed OTP mail directly from the first field's
// value, bypassing the renderer entirely.
func synthesizeOTP(form *domain.FormRecord, fields []domain.Field) *domain.RenderedMail {
	code := ""
	if len(fields) > 0 {
		code = fields[0].Value
	}
	return &domain.RenderedMail{
		FromName:  form.Handler.FromName,
		FromEmail: form.Handler.FromEmail,
		To:        form.Handler.To,
		ReplyTo:   form.Handler.ReplyTo,
		Subject:   fmt.Sprintf("OTP Code: %s", code),
		HTMLBody:  fmt.Sprintf("<p>Your code is: <strong>%s</strong></p>", code),
		TextBody:  fmt.Sprintf("Your code is: %s", code),
	}
}

func buildAttachmentURL(apiBaseURL, hex string) string {
	return strings.TrimRight(apiBaseURL, "/") + "/attachments/" + hex
}
