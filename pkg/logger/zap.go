package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/constant"
)

var (
	zapLogger *zap.Logger
	once      sync.Once
)

// initLogger initializes the Zap logger with the given configuration
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := getLogLevel(cfg.Level, cfg.Environment)

	prodEncoderCfg := zap.NewProductionEncoderConfig()
	prodEncoderCfg.TimeKey = "timestamp"
	prodEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	prodEncoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	devEncoderCfg := zap.NewDevelopmentEncoderConfig()
	devEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	devEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	var cores []zapcore.Core

	if cfg.FilePath != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  cfg.LocalTime,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(prodEncoderCfg), fileWriter, level))
	}

	switch {
	case cfg.Environment != "production":
		consoleEncoder := zapcore.NewConsoleEncoder(devEncoderCfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level))
	case cfg.Format == "json" || len(cores) == 0:
		// containers collect stdout
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(prodEncoderCfg), zapcore.AddSync(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// getLogLevel returns the appropriate log level based on configuration
func getLogLevel(levelStr string, env string) zap.AtomicLevel {
	level, err := zap.ParseAtomicLevel(levelStr)
	if env == "production" {
		if err != nil || level.Level() < zapcore.InfoLevel {
			fmt.Fprintf(
				os.Stderr,
				"[Logger] ⚠️  Log level '%s' not allowed in production. Fallback to INFO\n",
				levelStr,
			)
			return zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
		return level
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "[Logger] ⚠️  Invalid log level '%s', fallback to INFO\n", levelStr)
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return level
}

// GetLogger builds the process logger once and installs it as zap.L().
func GetLogger(cfg config.LoggerConfig) *zap.Logger {
	once.Do(func() {
		zapLogger = initLogger(cfg)
		zap.ReplaceGlobals(zapLogger)
	})
	return zapLogger
}

// FromContext returns zap.L() tagged with the request's correlation id, if any.
func FromContext(ctx context.Context) *zap.Logger {
	return WithCorrelationID(zap.L(), CorrelationID(ctx))
}

func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cid, _ := ctx.Value(constant.CorrelationIDKey).(string)
	return cid
}

// WithCorrelationID adds correlation ID to the logger
func WithCorrelationID(logger *zap.Logger, correlationID string) *zap.Logger {
	if correlationID != "" {
		return logger.With(zap.String("correlation_id", correlationID))
	}
	return logger
}

// Sync flushes any buffered log entries
func Sync() error {
	if zapLogger != nil {
		return zapLogger.Sync()
	}
	return nil
}
