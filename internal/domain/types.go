// Package domain holds the types and collaborator contracts shared by the
// consumer loop, the attempt executor, and the backing-store adapters.
package domain

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Field is one name/value pair from a form submission. Names may repeat;
// a "[]" suffix on Name signals that the renderer should group repeated
// values into a list.
type Field struct {
	Name  string
	Value string
}

// Message is a decoded stream entry, ready for dispatch to the Attempt
// Executor. ID is the stream's own opaque identifier, not a domain key.
type Message struct {
	ID              string
	Hex             string
	FormID          string
	Origin          string
	Fields          []Field
	AttachmentCount int
	FailCount       int
}

// OTPHex is the reserved hex sentinel that routes a Message through the
// OTP synthesis branch instead of the form-driven render path.
const OTPHex = "otp"

// Mode is which of the two operating modes a Consumer Loop / Attempt
// Executor pair is bound to.
type Mode int

const (
	ModePrimary Mode = iota
	ModeRetry
)

func (m Mode) String() string {
	if m == ModeRetry {
		return "retry"
	}
	return "primary"
}

// HandlerRecord is the delivery configuration attached to a form record.
type HandlerRecord struct {
	FromName  string
	FromEmail string
	To        string
	ReplyTo   string
	Template  string
	Gateway   string
}

// FormRecord is the subset of a form's metadata the executor needs.
type FormRecord struct {
	ID              string
	AllowDuplicates bool
	Handler         HandlerRecord
}

// Validate checks the handler's address fields: govalidator.IsEmail on
// every address field, a plain field-presence check on everything else. The
// executor treats a form whose handler fails validation as a render
// failure: the renderer has nothing usable to send to.
func (f *FormRecord) Validate() error {
	if f.Handler.FromEmail == "" || !govalidator.IsEmail(f.Handler.FromEmail) {
		return fmt.Errorf("handler.from_email is missing or invalid: %q", f.Handler.FromEmail)
	}
	if f.Handler.To == "" || !govalidator.IsEmail(f.Handler.To) {
		return fmt.Errorf("handler.to is missing or invalid: %q", f.Handler.To)
	}
	if f.Handler.ReplyTo != "" && !govalidator.IsEmail(f.Handler.ReplyTo) {
		return fmt.Errorf("handler.reply_to is invalid: %q", f.Handler.ReplyTo)
	}
	if f.Handler.Template == "" {
		return fmt.Errorf("handler.template is missing")
	}
	return nil
}

// RenderedMail is what the renderer (or the OTP synthesis branch) hands
// to the Sender.
type RenderedMail struct {
	FromName  string
	FromEmail string
	To        string
	ReplyTo   string
	Subject   string
	HTMLBody  string
	TextBody  string
}

// AttachmentRef identifies one blob in the object store belonging to an
// attachment manifest.
type AttachmentRef struct {
	Name     string
	Key      string
	Filename string
}

// AttachmentManifest is the side-state record of blobs belonging to one
// hex. A nil manifest (no error) means none exists.
type AttachmentManifest struct {
	Hex   string
	Files []AttachmentRef
}

// FailedEntryRecord is one entry appended to the dead-letter list. ID is a
// uuid assigned at append time, letting operators reference one dead-letter
// record unambiguously even though the list itself has no per-entry key.
type FailedEntryRecord struct {
	ID              string
	Hex             string
	FormID          string
	Origin          string
	Fields          string // JSON-encoded []Field, for offline inspection
	AttachmentCount int
	Error           string
}

// NewFailedEntryID generates the uuid used to identify one dead-letter
// record.
func NewFailedEntryID() string {
	return uuid.NewString()
}
