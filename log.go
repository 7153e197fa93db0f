package dbobj

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production zap logger at the given level ("debug",
// "info", "warn", "error").
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zapCfg.Build()
	if err != nil {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
		return zapCfg.Build()
	}

	return logger, nil
}

func ParseLogLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return lvl, nil
}

type tracer struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// trace logs one executed statement. rows is -1 when unknown.
func (t tracer) trace(begin time.Time, stmt string, rows int64, err error) {
	elapsed := time.Since(begin)

	fields := []zap.Field{
		zap.String("duration", fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6)),
		zap.String("sql", stmt),
	}

	if rows != -1 {
		fields = append(fields, zap.Int64("rows", rows))
	}

	switch {
	case err != nil && !errors.Is(err, ErrKeyNotFound):
		fields = append(fields, zap.Error(err))
		t.logger.Error("statement failed", fields...)

	case t.slowThreshold != 0 && elapsed > t.slowThreshold:
		fields = append(fields, zap.Duration("slow_threshold", t.slowThreshold))
		t.logger.Warn("slow statement", fields...)

	default:
		t.logger.Debug("statement executed", fields...)
	}
}

func zapDriver(name string) zap.Field {
	return zap.String("driver", name)
}
