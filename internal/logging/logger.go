package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// New builds the run logger: a console writer on out and, when File is set,
// a rotating JSON log file. Every line carries the run_id. The returned
// closer releases the log file.
func New(config types.LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	config = withDefaults(config)

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	if out == nil {
		out = os.Stderr
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    config.NoColor,
	}

	var writer io.Writer = console
	var closer io.Closer = nopCloser{}

	if config.File != "" {
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   true,
		}
		writer = io.MultiWriter(console, file)
		closer = file
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	return logger, closer, nil
}

// withDefaults fills zero fields from DefaultLogConfig
func withDefaults(config types.LogConfig) types.LogConfig {
	defaults := DefaultLogConfig()
	if config.Level == "" {
		config.Level = defaults.Level
	}
	if config.MaxSize <= 0 {
		config.MaxSize = defaults.MaxSize
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = defaults.MaxBackups
	}
	if config.MaxAge <= 0 {
		config.MaxAge = defaults.MaxAge
	}
	return config
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
