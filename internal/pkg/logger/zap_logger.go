package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ILogger is the structured logger handed to services. The module tag
// groups lines per subsystem (AdviceService, ContractService, ...) so
// one pipeline's noise can be filtered out when debugging another.
type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger   *zap.Logger
	filePath string
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func newJSONEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// NewZapLogger writes JSON to a rotated file and mirrors to stdout.
// Development runs get a human console encoder instead of JSON.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	fileCore := zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(logFilePath)), zap.InfoLevel)

	consoleEncoder := newJSONEncoder()
	if !isProd {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

	// Skip the level method and the log helper so the caller field
	// points at the service call site.
	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(2))

	return &ZapLogger{logger: l, filePath: logFilePath}
}

// NewIsolatedLogger writes only to its file. The websocket and
// notification paths log per-frame, which would drown the console.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	fileCore := zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(logFilePath)), zap.InfoLevel)
	l := zap.New(fileCore, zap.AddCaller(), zap.AddCallerSkip(2))

	return &ZapLogger{logger: l, filePath: logFilePath}
}

func (l *ZapLogger) log(level zapcore.Level, module, message string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	if ce := l.logger.Check(level, message); ce != nil {
		ce.Write(zap.String("module", module), zap.Any("details", details))
	}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.log(zap.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.log(zap.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.log(zap.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.log(zap.ErrorLevel, module, message, details)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
