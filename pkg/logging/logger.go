// Package logging provides the run-wide logger: leveled, timestamped output
// duplicated to an interactive console stream and a flat per-run log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogFile overrides the default per-run log file path when set.
const EnvLogFile = "HOMEFORGE_LOG_FILE"

// Config controls logger construction.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	Level string

	// FilePath is the per-run log file. Empty selects the default under
	// the temporary-files area, honoring EnvLogFile.
	FilePath string

	// ConsoleOut receives the interactive stream. Defaults to os.Stderr.
	ConsoleOut io.Writer

	// NoColor disables console color codes.
	NoColor bool
}

// Logger wraps zerolog with the split console/file output every component
// of a run shares. The file path is fixed once at construction.
type Logger struct {
	zlog     zerolog.Logger
	filePath string
	file     *os.File
}

// New creates a logger writing to both the console and the run's log file.
func New(cfg Config) (*Logger, error) {
	if cfg.ConsoleOut == nil {
		cfg.ConsoleOut = os.Stderr
	}
	path := cfg.FilePath
	if path == "" {
		path = DefaultFilePath(time.Now())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	console := zerolog.ConsoleWriter{
		Out:        cfg.ConsoleOut,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	// The file copy stays a flat, greppable transcript: no color, same
	// timestamp + level + message line as the console.
	transcript := zerolog.ConsoleWriter{
		Out:        file,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}

	zlog := zerolog.New(zerolog.MultiLevelWriter(console, transcript)).
		With().Timestamp().Logger().
		Level(parseLevel(cfg.Level))

	return &Logger{zlog: zlog, filePath: path, file: file}, nil
}

// NewDiscard returns a logger that drops everything. Used in tests.
func NewDiscard() *Logger {
	return &Logger{zlog: zerolog.New(io.Discard)}
}

// DefaultFilePath returns the log file path for a run started at ts,
// honoring EnvLogFile when set.
func DefaultFilePath(ts time.Time) string {
	if path := os.Getenv(EnvLogFile); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("homeforge_%s.log", ts.Format("20060102_150405")))
}

// FilePath returns the run's log file path.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zlog:     l.zlog.With().Str("component", component).Logger(),
		filePath: l.filePath,
	}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

// Debugf logs a formatted debug-level message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

// Infof logs a formatted info-level message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Success logs an info-level message marked as a successful outcome.
func (l *Logger) Success(msg string) {
	l.zlog.Info().Str("outcome", "success").Msg(msg)
}

// Successf logs a formatted success message.
func (l *Logger) Successf(format string, args ...interface{}) {
	l.zlog.Info().Str("outcome", "success").Msgf(format, args...)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// Warnf logs a formatted warning-level message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string) {
	l.zlog.Error().Msg(msg)
}

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// WithError returns a child logger carrying an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		zlog:     l.zlog.With().Err(err).Logger(),
		filePath: l.filePath,
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
