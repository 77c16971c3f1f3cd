package logger

import (
	"fmt"

	"github.com/tilequote/quote-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Production (or LOG_FORMAT=json) gets
// JSON lines with ISO8601 timestamps; everything else gets the colored console encoder.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	zapCfg := encoderConfig(cfg.Format == "json" || appCfg.Environment == "production")

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func encoderConfig(structured bool) zap.Config {
	if !structured {
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// warnings are common in dev (unset secrets, open CORS); keep stacks for errors
		c.DisableStacktrace = true
		return c
	}

	c := zap.NewProductionConfig()
	c.EncoderConfig.TimeKey = "timestamp"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// sweep and reminder runs log one line per invoice; sampling would hide some
	c.Sampling = nil
	return c
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithJob tags every line written during a scheduled run.
func WithJob(logger *zap.Logger, name, runID string) *zap.Logger {
	return logger.With(
		zap.String("job_name", name),
		zap.String("run_id", runID),
	)
}
