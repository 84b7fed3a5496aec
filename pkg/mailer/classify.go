package mailer

import (
	"errors"
	"net"
	"net/textproto"
)

// asTemporary unwraps err looking for a net.Error and reports whether it
// was found (Temporary() is then evaluated by the caller).
func asTemporary(err error, out *interface{ Temporary() bool }) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		*out = netErr
		return true
	}
	return false
}

// smtpReplyCode extracts the three-digit SMTP reply code from err, if the
// underlying transport surfaced one, or 0 if none is present.
func smtpReplyCode(err error) int {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	return 0
}
