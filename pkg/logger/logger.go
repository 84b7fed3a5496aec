package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=../mocks/mock_logger.go -package=mocks github.com/email4-dev/mailer/pkg/logger Logger

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

func NewLogger() Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return &zerologLogger{
		logger: logger,
	}
}

// NewLoggerWithLevel creates a logger at the named zerolog level
// ("debug", "info", "warn"/"warning", "error", "fatal", "panic",
// "disabled"/"off"). An empty or unrecognized name defaults to info. Sets
// the global zerolog level so child loggers created later inherit it.
// cmd/mailer picks "debug" or "info" from the DEBUG setting.
func NewLoggerWithLevel(level string) Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	if strings.EqualFold(level, "warning") {
		parsed = zerolog.WarnLevel
	}
	if strings.EqualFold(level, "off") {
		parsed = zerolog.Disabled
	}
	zerolog.SetGlobalLevel(parsed)
	logger := zerolog.New(os.Stdout).Level(parsed).With().Timestamp().Logger()
	return &zerologLogger{
		logger: logger,
	}
}

func (l *zerologLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zerologLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLogger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *zerologLogger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return &zerologLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &zerologLogger{
		logger: ctx.Logger(),
	}
}
