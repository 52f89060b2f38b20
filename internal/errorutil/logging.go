package errorutil

import (
	"fmt"
	"log/slog"
)

// LogAndWrap logs an error with structured context at debug level and returns
// a wrapped error. The caller owns the user-facing report of the failure.
func LogAndWrap(logger *slog.Logger, operation string, err error, attrs ...slog.Attr) error {
	if logger == nil || err == nil {
		return err
	}

	logger.Debug(operation+" failed", toAny(withError(err, attrs))...)
	return fmt.Errorf("%s: %w", operation, err)
}

// LogWarning logs a non-fatal error as warning without wrapping.
// Used for recoverable conditions that should be reported but don't stop
// the invocation, such as a dropped state qualifier.
func LogWarning(logger *slog.Logger, operation string, err error, attrs ...slog.Attr) {
	if logger == nil || err == nil {
		return
	}

	logger.Warn("Non-fatal error in "+operation, toAny(withError(err, attrs))...)
}

// LocationContext creates context attributes for location operations
func LocationContext(query, units string) []slog.Attr {
	attrs := make([]slog.Attr, 0, 2)
	if query != "" {
		attrs = append(attrs, slog.String("location", query))
	}
	if units != "" {
		attrs = append(attrs, slog.String("units", units))
	}
	return attrs
}

// ConfigContext creates context attributes for configuration operations
func ConfigContext(configFile string) []slog.Attr {
	if configFile == "" {
		return nil
	}
	return []slog.Attr{slog.String("config_file", configFile)}
}

func withError(err error, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs)+1)
	out = append(out, slog.String("error", err.Error()))
	return append(out, attrs...)
}

func toAny(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i, attr := range attrs {
		out[i] = attr
	}
	return out
}
