package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. An unparsable level falls back to info and
// is reported once through the returned logger.
func New(level string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		logLevel = zapcore.InfoLevel
	}

	log := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		logLevel,
	)).Named("relay")

	if err != nil && level != "" {
		log.With(zap.String("LOG_LEVEL", level)).Warn("unable to parse log level, using INFO")
	}

	return log
}

type logKeyType struct{}

// WithFields attaches fields to ctx so that downstream components log them.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	old := Fields(ctx)
	merged := make([]zap.Field, 0, len(old)+len(fields))
	merged = append(merged, old...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, logKeyType{}, merged)
}

func Fields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(logKeyType{}).([]zap.Field)
	if !ok {
		return nil
	}
	return fields
}

// FromContext returns parent decorated with the fields carried by ctx.
func FromContext(ctx context.Context, parent *zap.Logger) *zap.Logger {
	return parent.With(Fields(ctx)...)
}
