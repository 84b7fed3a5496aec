package mailer

import (
	"errors"
	"net/textproto"
	"testing"
	"time"

	"github.com/email4-dev/mailer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.NewMockLogger()
}

func TestNewGateway_NonPooledDoesNotDial(t *testing.T) {
	cfg := Config{
		Hostname: "smtp.example.com",
		Port:     587,
		Security: "starttls",
		Auth:     "plain",
		Username: "user",
		Password: "pass",
	}
	g, err := NewGateway(cfg, testLogger())
	require.NoError(t, err)
	assert.Nil(t, g.pooled)
	assert.NoError(t, g.Close())
}

func TestNewGateway_PooledBuildsClient(t *testing.T) {
	cfg := Config{
		Hostname: "smtp.example.com",
		Port:     587,
		Security: "none",
		Auth:     "plain",
		Username: "user",
		Password: "pass",
		Pool:     true,
	}
	g, err := NewGateway(cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, g.pooled)
	assert.NoError(t, g.Close())
}

func TestNewSMTPClient_SecurityModes(t *testing.T) {
	for _, security := range []string{"none", "starttls", "ssl", ""} {
		cfg := Config{Hostname: "smtp.example.com", Port: 587, Security: security, Auth: "plain", Username: "u", Password: "p"}
		client, err := newSMTPClient(cfg)
		require.NoError(t, err, "security=%s", security)
		assert.NotNil(t, client)
	}
}

func TestNewSMTPClient_AuthModes(t *testing.T) {
	cases := []Config{
		{Hostname: "smtp.example.com", Port: 587, Security: "starttls", Auth: "plain", Username: "u", Password: "p"},
		{Hostname: "smtp.example.com", Port: 587, Security: "starttls", Auth: "gmail", Username: "u", Password: "p"},
		{Hostname: "smtp.example.com", Port: 587, Security: "starttls", Auth: "oauth2", Username: "u", PrivateKey: "token"},
	}
	for _, cfg := range cases {
		client, err := newSMTPClient(cfg)
		require.NoError(t, err, "auth=%s", cfg.Auth)
		assert.NotNil(t, client)
	}
}

func TestNewSMTPClient_DefaultTimeout(t *testing.T) {
	cfg := Config{Hostname: "smtp.example.com", Port: 587, Security: "none", Auth: "plain", Username: "u", Password: "p"}
	client, err := newSMTPClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewSMTPClient_CustomTimeout(t *testing.T) {
	cfg := Config{Hostname: "smtp.example.com", Port: 587, Security: "none", Auth: "plain", Username: "u", Password: "p", Timeout: 30 * time.Second}
	client, err := newSMTPClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

type fakeTemporaryErr struct{ temporary bool }

func (e *fakeTemporaryErr) Error() string   { return "fake network error" }
func (e *fakeTemporaryErr) Timeout() bool   { return false }
func (e *fakeTemporaryErr) Temporary() bool { return e.temporary }

func TestIsTransientSMTPError_NetTemporary(t *testing.T) {
	assert.True(t, isTransientSMTPError(&fakeTemporaryErr{temporary: true}))
	assert.False(t, isTransientSMTPError(&fakeTemporaryErr{temporary: false}))
}

func TestIsTransientSMTPError_SMTPReplyCode(t *testing.T) {
	transient := &textproto.Error{Code: 450, Msg: "mailbox busy"}
	permanent := &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	assert.True(t, isTransientSMTPError(transient))
	assert.False(t, isTransientSMTPError(permanent))
}

func TestIsTransientSMTPError_UnknownErrorIsPermanent(t *testing.T) {
	assert.False(t, isTransientSMTPError(errors.New("unrecognized failure")))
}

func TestSMTPReplyCode_Unwraps(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &textproto.Error{Code: 421, Msg: "service not available"})
	assert.Equal(t, 421, smtpReplyCode(wrapped))
}

func TestSMTPReplyCode_NoCode(t *testing.T) {
	assert.Equal(t, 0, smtpReplyCode(errors.New("plain error")))
}
