// Package logging builds the zap logger shared by every package.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Debug bool
	// File is the log file; empty logs to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Level is shared by every logger built here.
var Level = zap.NewAtomicLevelAt(zap.InfoLevel)

func New(cfg Config) *zap.Logger {
	if cfg.Debug {
		Level.SetLevel(zap.DebugLevel)
	} else {
		Level.SetLevel(zap.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, Level))
}
