package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Logger is a named sugared logger.
type Logger struct {
	*zap.SugaredLogger
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

var (
	rootOnce sync.Once
	root     *zap.Logger
)

// Root returns the process wide logger, configured from LOG_LEVEL and LOG_FORMAT.
func Root() *zap.Logger {
	rootOnce.Do(func() {
		l, err := build(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
		if err != nil {
			l = zap.NewNop()
		}
		root = l
	})
	return root
}

func build(level, format string) (*zap.Logger, error) {
	conf := zap.NewProductionConfig()
	conf.EncoderConfig.TimeKey = "ts"
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(format, "console") {
		conf.Encoding = "console"
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		conf.Level = zap.NewAtomicLevelAt(lvl)
	}
	return conf.Build()
}

func MustNamed(name string) *Logger {
	return &Logger{SugaredLogger: Root().Named(name).Sugar()}
}

func Reflect(key string, v any) zap.Field {
	return zap.Reflect(key, v)
}
