// Package mailer is the default SMTP gateway: a concrete implementation of
// domain.Sender built on wneessen/go-mail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/email4-dev/mailer/pkg/logger"
	gomail "github.com/wneessen/go-mail"
)

// Config is the SMTP_* configuration surface from the external-interfaces
// table: hostname/port/security/auth plus optional pooling.
type Config struct {
	Hostname   string
	Port       int
	Security   string // none | starttls | ssl
	Auth       string // plain | gmail | oauth2
	Username   string
	Password   string
	PrivateKey string // oauth2 token, when Auth == "oauth2"
	AccessURL  string // oauth2 token endpoint, informational only
	Pool       bool
	Timeout    time.Duration
}

// Gateway sends RenderedMail over SMTP and classifies the outcome into the
// send-permanent / send-transient split of the error taxonomy.
type Gateway struct {
	cfg    Config
	log    logger.Logger
	pooled *gomail.Client
}

// NewGateway builds a Gateway. When cfg.Pool is set (SMTP_POOL), a single
// SMTP client is built once and reused across sends; otherwise each Send
// call builds its own client. NewGateway does not dial, and in both cases
// every Send dials, sends and closes its own connection through
// DialAndSendWithContext: no connection is held open between sends.
func NewGateway(cfg Config, log logger.Logger) (*Gateway, error) {
	g := &Gateway{cfg: cfg, log: log}
	if cfg.Pool {
		client, err := newSMTPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to dial pooled SMTP client: %w", err)
		}
		g.pooled = client
	}
	return g, nil
}

// Close closes the pooled SMTP client, if any. Part of the lifecycle's
// "close SMTP transport" shutdown step.
func (g *Gateway) Close() error {
	if g.pooled == nil {
		return nil
	}
	return g.pooled.Close()
}

// Send implements domain.Sender.
func (g *Gateway) Send(ctx context.Context, mail *domain.RenderedMail, clientMessageID string) (bool, error) {
	msg := gomail.NewMsg()
	msg.SetMessageIDWithValue(clientMessageID)

	if err := msg.FromFormat(mail.FromName, mail.FromEmail); err != nil {
		return false, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(mail.To); err != nil {
		return false, fmt.Errorf("invalid to address: %w", err)
	}
	if mail.ReplyTo != "" {
		if err := msg.ReplyTo(mail.ReplyTo); err != nil {
			return false, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(mail.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, mail.HTMLBody)
	if mail.TextBody != "" {
		msg.AddAlternativeString(gomail.TypeTextPlain, mail.TextBody)
	}

	client := g.pooled
	if client == nil {
		var err error
		client, err = newSMTPClient(g.cfg)
		if err != nil {
			return false, fmt.Errorf("failed to create SMTP client: %w", err)
		}
	}

	err := client.DialAndSendWithContext(ctx, msg)
	if !g.cfg.Pool {
		_ = client.Close()
	}
	if err == nil {
		return true, nil
	}

	if isTransientSMTPError(err) {
		g.log.WithField("hex", clientMessageID).WithField("error", err.Error()).Warn("transient SMTP failure")
		return false, nil
	}
	return false, fmt.Errorf("permanent SMTP failure: %w", err)
}

// newSMTPClient builds a go-mail client configured per SMTP_SECURITY and
// SMTP_AUTH.
func newSMTPClient(cfg Config) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}

	switch cfg.Security {
	case "ssl":
		opts = append(opts, gomail.WithSSL())
	case "starttls":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append(opts, gomail.WithTimeout(timeout))

	switch cfg.Auth {
	case "oauth2":
		opts = append(opts, gomail.WithSMTPAuth(gomail.SMTPAuthXOAUTH2))
		opts = append(opts, gomail.WithUsername(cfg.Username), gomail.WithPassword(cfg.PrivateKey))
	case "gmail":
		opts = append(opts, gomail.WithSMTPAuth(gomail.SMTPAuthLogin))
		opts = append(opts, gomail.WithUsername(cfg.Username), gomail.WithPassword(cfg.Password))
	default:
		opts = append(opts, gomail.WithSMTPAuth(gomail.SMTPAuthPlain))
		opts = append(opts, gomail.WithUsername(cfg.Username), gomail.WithPassword(cfg.Password))
	}

	client, err := gomail.NewClient(cfg.Hostname, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// isTransientSMTPError reports whether err looks like a condition the
// spec's Send-transient bucket covers (timeouts, connection refusal, 4xx
// replies) rather than a permanent 5xx/auth/address rejection.
func isTransientSMTPError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var textErr interface{ Temporary() bool }
	if ok := asTemporary(err, &textErr); ok {
		return textErr.Temporary()
	}
	if code := smtpReplyCode(err); code != 0 {
		return code >= 400 && code < 500
	}
	return false
}
