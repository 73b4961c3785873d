package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/billforge/billforge/internal/config"
)

// Logger wraps a sugared zap logger
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger creates a new logger instance based on the provided configuration
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(getZapLogLevel(cfg.Logging.Level))

	if cfg.Deployment.Mode == "development" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{logger.Sugar()}, nil
}

// GetLogger returns a default logger for contexts where DI is unavailable
func GetLogger() *Logger {
	logger, _ := zap.NewProduction()
	return &Logger{logger.Sugar()}
}

// With returns a logger with the given key value pairs attached to every entry
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}

func getZapLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
