package receptradar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	// Debug lowers the console level from Warn to Debug.
	Debug bool
	// Path, when set, adds a JSON log file that records Debug and above.
	Path string
	// Console overrides the console writer. Defaults to stderr.
	Console io.Writer
}

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel: "\033[36m",
	zapcore.InfoLevel:  "\033[32m",
	zapcore.WarnLevel:  "\033[33m",
	zapcore.ErrorLevel: "\033[31m",
	zapcore.FatalLevel: "\033[35m",
}

const resetColor = "\033[0m"

func encoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if color {
		cfg.EncodeLevel = shortLevelEncoder
		cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("15:04:05.000"))
		}
	}
	return cfg
}

func shortLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	level := l.CapitalString()
	switch l {
	case zapcore.DebugLevel:
		level = "DBG"
	case zapcore.InfoLevel:
		level = "INF"
	case zapcore.WarnLevel:
		level = "WRN"
	case zapcore.ErrorLevel:
		level = "ERR"
	case zapcore.FatalLevel:
		level = "FAT"
	}
	enc.AppendString(levelColors[l] + level + resetColor)
}

// NewLogger builds the process logger: a console core on stderr plus an
// optional JSON file core. The returned close function syncs and closes the
// log file.
func NewLogger(opts LogOptions) (*zap.Logger, func() error, error) {
	consoleLevel := zapcore.WarnLevel
	if opts.Debug {
		consoleLevel = zapcore.DebugLevel
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(console == os.Stderr)),
			zapcore.AddSync(console),
			consoleLevel,
		),
	}

	var file *os.File
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig(false)),
			zapcore.AddSync(f),
			zapcore.DebugLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.Fields(zap.String("service", "receptradar")))
	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
