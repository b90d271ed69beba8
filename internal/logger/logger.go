package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	Disabled
)

// Logger is the component-tagged structured logger every augmentation
// layer writes through.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel accepts the zerolog level names ("debug", "info", "warn",
// "error", "disabled"). The empty string means info.
func ParseLevel(name string) (LogLevel, error) {
	if strings.TrimSpace(name) == "" {
		return InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	switch lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return DebugLevel, nil
	case zerolog.InfoLevel, zerolog.NoLevel:
		return InfoLevel, nil
	case zerolog.WarnLevel:
		return WarnLevel, nil
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return ErrorLevel, nil
	default:
		return Disabled, nil
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{})   {}
func (nopLogger) Info(string, string, map[string]interface{})    {}
func (nopLogger) Warning(string, string, map[string]interface{}) {}
func (nopLogger) Error(string, error, map[string]interface{})    {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}
