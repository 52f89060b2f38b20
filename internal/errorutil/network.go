package errorutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	neturl "net/url"
	"strings"
	"syscall"
)

// TransportError represents a failure to reach the provider at all:
// connection refused, DNS failure, timeout or cancellation.
type TransportError struct {
	Operation string // The operation that failed (e.g. "weather request", "zip geocoding")
	URL       string // The URL that was being accessed, credentials redacted
	Cause     error  // The underlying error
	Timeout   bool   // Whether the failure was a timeout
	Retryable bool   // Whether a retry could plausibly succeed
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timed out for %s: %v", e.Operation, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error suggests retrying might be worthwhile.
// The client never retries on its own; this is for callers that wrap it.
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// NewTransportError creates a TransportError, classifying the cause. A
// *url.Error in the chain has its URL redacted in place.
func NewTransportError(operation, url string, err error) *TransportError {
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactURL(urlErr.URL)
	}
	return &TransportError{
		Operation: operation,
		URL:       RedactURL(url),
		Cause:     err,
		Timeout:   isTimeoutError(err),
		Retryable: isRetryableError(err),
	}
}

// LogTransportError records a transport error with structured context at
// debug level; the returned error is what reaches the user.
func LogTransportError(logger *slog.Logger, tErr *TransportError) *TransportError {
	if logger == nil {
		return tErr
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "Network operation failed",
		slog.String("operation", tErr.Operation),
		slog.String("url", tErr.URL),
		slog.String("error", tErr.Cause.Error()),
		slog.Bool("timeout", tErr.Timeout),
		slog.Bool("retryable", tErr.Retryable),
	)
	return tErr
}

// RedactURL hides the appid query parameter so API keys never reach logs
// or diagnostics.
func RedactURL(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("appid") == "" {
		return raw
	}
	q.Set("appid", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

// isRetryableError determines if an error is likely to be resolved by retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return isTimeoutError(err) || isDNSError(err) || isConnectionRefusedError(err)
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// isDNSError checks if an error is a DNS resolution error
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if an error is a connection refused error
func isConnectionRefusedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}
