package logger

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
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

type options struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

var (
	root     atomic.Pointer[zap.SugaredLogger]
	rootOnce sync.Once
)

// Root returns the process logger, built once from LOG_LEVEL and LOG_FORMAT.
func Root() *zap.SugaredLogger {
	rootOnce.Do(func() {
		l, err := build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v, falling back to production defaults\n", err)
			l = zap.Must(zap.NewProduction())
		}
		root.Store(l.Sugar())
	})
	return root.Load()
}

// MustNamed returns a child of the root logger scoped to name.
func MustNamed(name string) *zap.SugaredLogger {
	if name == "" {
		panic("logger: empty name")
	}
	return Root().Named(name)
}

// Replace swaps the root logger, tests use it with zaptest or zap.NewNop.
// Loggers already taken from MustNamed keep writing to the old one.
func Replace(l *zap.SugaredLogger) {
	rootOnce.Do(func() {})
	root.Store(l)
}

func build() (*zap.Logger, error) {
	var opts options
	if err := env.Parse(&opts); err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	conf := zap.NewProductionConfig()
	if opts.Format == "console" {
		conf = zap.NewDevelopmentConfig()
	}
	conf.Level = zap.NewAtomicLevelAt(level)
	conf.EncoderConfig.TimeKey = "ts"
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return conf.Build()
}
