package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/dwarvesf/bridge-relayer/internal/types/environments"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the log output, whatever the caller passes.
var sensitiveKeys = []string{"private_key", "privkey", "secret", "seed", "mnemonic", "token"}

type Logger struct {
	wrappedLogger *zap.Logger
	baseFields    map[string]string
}

func New(env environments.Environment) *Logger {
	var cfg zap.Config

	switch env {
	case environments.Development:
		cfg = newDevelopmentLoggerConfig()
	case environments.Test:
		cfg = newTestLoggerConfig()
	case environments.Staging:
		cfg = newStagingLoggerConfig()
	case environments.Production:
		cfg = newProductionLoggerConfig()
	default:
		cfg = newProductionLoggerConfig()
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{
		wrappedLogger: zapLogger,
	}
}

// With returns a child logger that adds fields to every entry, e.g. the intent id.
func (l *Logger) With(fields map[string]string) *Logger {
	merged := make(map[string]string, len(l.baseFields)+len(fields))
	for k, v := range l.baseFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &Logger{
		wrappedLogger: l.wrappedLogger,
		baseFields:    merged,
	}
}

func (l *Logger) Debug(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Debug(msg, l.fields(inputFields)...)
}

func (l *Logger) Info(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Info(msg, l.fields(inputFields)...)
}

func (l *Logger) Warn(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Warn(msg, l.fields(inputFields)...)
}

func (l *Logger) Error(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Error(msg, l.fields(inputFields)...)
}

func (l *Logger) Fatal(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Fatal(msg, l.fields(inputFields)...)
}

func (l *Logger) Sync() error {
	return l.wrappedLogger.Sync()
}

func (l *Logger) fields(inputFields []map[string]string) []zap.Field {
	fields := transformStrMapToFields(l.baseFields)
	if len(inputFields) > 0 {
		fields = append(fields, transformStrMapToFields(inputFields[0])...)
	}
	return fields
}

func transformStrMapToFields(strMap map[string]string) []zap.Field {
	fields := []zap.Field{}
	for k, v := range strMap {
		if isSensitive(k) {
			v = redacted
		}
		fields = append(fields, zap.String(k, v))
	}

	return fields
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
