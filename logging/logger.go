// Package logging builds the zap logger shared by the commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lepinkainen/timelapse/config"
)

// Options describes logger construction parameters
type Options struct {
	Level   string
	Format  string // console or json
	File    string // optional, appended to
	Console bool   // write to stderr
}

// FromConfig maps the [logging] section to Options with console output enabled
func FromConfig(c config.Logging) Options {
	return Options{Level: c.Level, Format: c.Format, File: c.File, Console: true}
}

// New builds a logger. With neither Console nor File set it returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	var outputs []string
	if opts.Console {
		outputs = append(outputs, "stderr")
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		outputs = append(outputs, opts.File)
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}

	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	var zc zap.Config
	switch opts.Format {
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		zc.Development = false
	case "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.DisableStacktrace = true
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
