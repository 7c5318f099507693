package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger writing to stdout. format is "json" or "text".
func New(level, format string) *Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(level, format string, w io.Writer) *Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	output := w
	if format == "text" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return &Logger{
		logger: zerolog.New(output).Level(logLevel).With().Timestamp().Logger(),
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Infof logs an info message with formatting
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Debugf logs a debug message with formatting
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// Warnf logs a warning message with formatting
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// With creates a child logger with an additional field
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}
