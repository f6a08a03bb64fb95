package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName = "igdm-dispatch"
	// idVisibleSuffix is how many trailing characters of an Instagram id
	// stay readable in logs.
	idVisibleSuffix = 4
)

type requestIDKey struct{}

// NewLogger builds the JSON production logger. Every entry carries the
// service name.
func NewLogger(level string) (*zap.Logger, error) {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsedLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.InitialFields = map[string]any{"service": serviceName}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var parsed zapcore.Level
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}

	if err := parsed.UnmarshalText([]byte(normalized)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return parsed, nil
}

// WithRequestID stores the inbound request id so downstream logs can carry it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || requestID == "" {
		return "", false
	}

	return requestID, true
}

func WithContextLogger(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if logger == nil {
		return nil
	}

	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		return logger
	}

	return logger.With(zap.String("requestId", requestID))
}

// MaskedID logs an Instagram-scoped id (recipient or business account)
// with everything but its last characters replaced by '*'.
func MaskedID(key, id string) zap.Field {
	return zap.String(key, maskID(id))
}

func maskID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if len(id) <= idVisibleSuffix {
		return strings.Repeat("*", len(id))
	}
	return strings.Repeat("*", len(id)-idVisibleSuffix) + id[len(id)-idVisibleSuffix:]
}
