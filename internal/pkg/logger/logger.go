// Package logger builds the process logger and holds the PII redaction
// helpers. Discovered contact values are personal data; log them only in
// redacted form.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a zap logger. level is one of debug, info, warn, error;
// format is json or console.
func New(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Email returns a field carrying the redacted form of an email address.
func Email(key, address string) zap.Field {
	return zap.String(key, RedactEmail(address))
}

// Phone returns a field carrying the redacted form of a phone number.
func Phone(key, number string) zap.Field {
	return zap.String(key, RedactPhone(number))
}
