package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level represents logging severity using slog levels
type Level slog.Level

const (
	DebugLevel Level = Level(slog.LevelDebug)
	InfoLevel  Level = Level(slog.LevelInfo)
	WarnLevel  Level = Level(slog.LevelWarn)
	ErrorLevel Level = Level(slog.LevelError)
)

const (
	defaultFilenamePattern = "pdi-weather-YYYYMMDD.log"
	fileTimeFormat         = "2006-01-02T15:04:05.000-07:00"
)

// Config represents logging configuration compatible with the config package
type Config struct {
	Enabled         bool   `toml:"enabled"`
	Directory       string `toml:"directory"`
	FilenamePattern string `toml:"filename_pattern"`
	Level           string `toml:"level"`
	ConsoleOutput   bool   `toml:"console_output"`

	// File, when set, is used verbatim as the log file path. Directory and
	// FilenamePattern are ignored.
	File string `toml:"-"`
}

// Logger wraps slog.Logger with the optional log file it writes to.
// Console output always goes to stderr; stdout carries the weather report.
type Logger struct {
	*slog.Logger
	config   Config
	file     *os.File
	fileName string
}

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// Initialize creates and configures the global logger instance
func Initialize(config Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil {
		globalLogger.Close()
	}
	globalLogger = l
	return nil
}

// Get returns the global logger instance, creating a console logger at warn
// level if Initialize has not been called.
func Get() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = &Logger{Logger: slog.New(consoleHandler(os.Stderr, slog.LevelWarn, !isTerminal(os.Stderr)))}
	}
	return globalLogger
}

// SetOutputForTesting points the global logger at w without colors and
// returns a function restoring the previous logger.
func SetOutputForTesting(w io.Writer, level Level) func() {
	globalMu.Lock()
	prev := globalLogger
	globalLogger = &Logger{Logger: slog.New(consoleHandler(w, slog.Level(level), true))}
	globalMu.Unlock()

	return func() {
		globalMu.Lock()
		globalLogger = prev
		globalMu.Unlock()
	}
}

// Slog returns the underlying *slog.Logger of the global instance
func Slog() *slog.Logger {
	return Get().Logger
}

// New creates a logger for the given configuration
func New(config Config) (*Logger, error) {
	return newLogger(config, os.Stderr)
}

func newLogger(config Config, console io.Writer) (*Logger, error) {
	if config.Enabled && config.File == "" {
		if err := ValidateFilenamePattern(config.FilenamePattern); err != nil {
			return nil, fmt.Errorf("invalid filename pattern: %w", err)
		}
	}

	l := &Logger{config: config}
	level := parseLogLevel(config.Level)

	if !config.Enabled {
		noColor := true
		if f, ok := console.(*os.File); ok {
			noColor = !isTerminal(f)
		}
		l.Logger = slog.New(consoleHandler(console, level, noColor))
		return l, nil
	}

	l.fileName = logFilePath(config, time.Now())
	if err := os.MkdirAll(filepath.Dir(l.fileName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(l.fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = file

	if config.ConsoleOutput {
		// Shared writer, so no ANSI colors end up in the file
		l.Logger = slog.New(consoleHandler(io.MultiWriter(console, file), level, true))
	} else {
		l.Logger = slog.New(fileHandler(file, level))
	}

	l.Debug("Logger initialized",
		slog.String("log_file", l.fileName),
		slog.String("level", config.Level),
		slog.Bool("console", config.ConsoleOutput))

	return l, nil
}

func consoleHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

func fileHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(fileTimeFormat))
			}
			return a
		},
	})
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FileName returns the path of the active log file, if any
func (l *Logger) FileName() string {
	return l.fileName
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Close closes the global logger's file, if one is open
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Close()
}

// logFilePath picks the explicit file when one is configured, otherwise the
// dated name inside the expanded log directory
func logFilePath(config Config, now time.Time) string {
	if config.File != "" {
		return filepath.Clean(config.File)
	}
	return filepath.Join(expandLogDirectory(config.Directory), generateLogFilename(config.FilenamePattern, now))
}

// expandLogDirectory expands the log directory path with platform-specific defaults
func expandLogDirectory(dir string) string {
	if dir == "" {
		dir = "logs"
	}

	if filepath.IsAbs(dir) || dir == "logs" || strings.HasPrefix(dir, "./") || strings.HasPrefix(dir, "../") {
		return dir
	}

	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[2:])
		}
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pdi-weather", dir)
		}
	case "darwin", "linux":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".pdi-weather", dir)
		}
	}

	return dir
}

// generateLogFilename creates a filename from the pattern using date formatting
func generateLogFilename(pattern string, now time.Time) string {
	if pattern == "" {
		pattern = defaultFilenamePattern
	}

	result := pattern
	result = strings.ReplaceAll(result, "YYYY", fmt.Sprintf("%04d", now.Year()))
	result = strings.ReplaceAll(result, "MM", fmt.Sprintf("%02d", now.Month()))
	result = strings.ReplaceAll(result, "DD", fmt.Sprintf("%02d", now.Day()))
	result = strings.ReplaceAll(result, "HH", fmt.Sprintf("%02d", now.Hour()))
	return result
}

// ValidateFilenamePattern rejects patterns that would not produce a plain
// file name on every platform.
func ValidateFilenamePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if strings.ContainsAny(pattern, `/\`) {
		return fmt.Errorf("pattern %q must not contain path separators", pattern)
	}
	if i := strings.IndexAny(pattern, `<>:"|?*`); i >= 0 {
		return fmt.Errorf("pattern %q contains invalid character %q", pattern, pattern[i])
	}
	for _, r := range pattern {
		if r < 0x20 {
			return fmt.Errorf("pattern %q contains a control character", pattern)
		}
	}
	if strings.TrimRight(pattern, ". ") != pattern {
		return fmt.Errorf("pattern %q must not end with a dot or space", pattern)
	}
	return nil
}

// parseLogLevel converts string level to slog.Level
func parseLogLevel(level string) slog.Level {
	l, err := ParseLevel(level)
	if err != nil {
		return slog.LevelWarn
	}
	return slog.Level(l)
}

// ParseLevel converts a string to a log level
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning", "":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return WarnLevel, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	Get().Debug(fmt.Sprintf(format, args...))
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	Get().Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	Get().Warn(fmt.Sprintf(format, args...))
}

// LogAPIRequest logs the start of an API request. The URL must already be
// redacted by the caller.
func LogAPIRequest(method, url string, headers map[string]string) {
	fields := []any{
		"method", method,
		"url", url,
		"type", "api_request",
	}
	if userAgent := headers["User-Agent"]; userAgent != "" {
		fields = append(fields, "user_agent", userAgent)
	}

	Get().LogAttrs(context.Background(), slog.LevelDebug, "API request started", slog.Group("request", fields...))
}

// LogAPIResponse logs an API response with structured fields
func LogAPIResponse(method, url string, statusCode int, duration time.Duration, bodySize int) {
	level := slog.LevelDebug
	if statusCode >= 400 {
		level = slog.LevelInfo
	}

	Get().LogAttrs(context.Background(), level, "API request completed",
		slog.Group("request",
			"method", method,
			"url", url,
			"status_code", statusCode,
			"duration", duration,
			"body_size", bodySize,
			"type", "api_response",
		),
	)
}

// LogOperationStart logs the beginning of an operation and returns a completion function
func LogOperationStart(operation string, details map[string]any) func(error) {
	startTime := time.Now()

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("type", "operation_start"),
	}
	if len(details) > 0 {
		detailAttrs := make([]any, 0, len(details)*2)
		for k, v := range details {
			detailAttrs = append(detailAttrs, k, v)
		}
		attrs = append(attrs, slog.Group("details", detailAttrs...))
	}

	Get().LogAttrs(context.Background(), slog.LevelDebug, "Operation started", attrs...)

	return func(err error) {
		level := slog.LevelDebug
		message := "Operation completed"

		completionAttrs := []slog.Attr{
			slog.String("operation", operation),
			slog.String("type", "operation_complete"),
			slog.Duration("duration", time.Since(startTime)),
			slog.Bool("success", err == nil),
		}
		if err != nil {
			level = slog.LevelInfo
			message = "Operation failed"
			completionAttrs = append(completionAttrs, slog.String("error", err.Error()))
		}

		Get().LogAttrs(context.Background(), level, message, completionAttrs...)
	}
}
