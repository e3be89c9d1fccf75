package logger

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode tags log files with the kind of process that wrote them.
type Mode string

const (
	ModeCLI    Mode = "cli"
	ModeServer Mode = "server"
)

type Options struct {
	Level string // debug, info, warn, error
	File  string // optional path of a rotating log file
	Mode  Mode
}

// New builds the process logger. Debug level uses the development encoder,
// everything else the production one.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
		if opts.Level != "" {
			lvl, err := zapcore.ParseLevel(opts.Level)
			if err != nil {
				return nil, fmt.Errorf("parse log level: %w", err)
			}
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if opts.File == "" {
		return l, nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   FileName(opts.File, opts.Mode),
			MaxSize:    10, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
		}),
		cfg.Level,
	)
	return l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

// FileName inserts the mode before the extension: logs/app.log becomes
// logs/app-cli.log.
func FileName(path string, mode Mode) string {
	if mode == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + string(mode) + ext
}
