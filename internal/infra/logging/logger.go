// internal/infra/logging/logger.go
package logging

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. format: "json" (Cloud Run) or "console" (ローカル).
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		return nil, errors.Wrapf(err, "logging: invalid level %q", level)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
		// Cloud Logging が拾うキー名に合わせる
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.LevelKey = "severity"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, errors.Newf("logging: unknown format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build")
	}
	return l, nil
}

// MustNew は cmd 用。失敗時は development logger にフォールバックします。
func MustNew(level, format string) *zap.Logger {
	l, err := New(level, format)
	if err == nil {
		return l
	}
	fallback, _ := zap.NewDevelopment()
	fallback.Warn("logger config rejected, using development logger", zap.Error(err))
	return fallback
}

// Mask は署名・アドレスをログ用に短縮します（"abcd***wxyz"）。
func Mask(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
