package errorutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Exit codes reported by the CLI, one per error kind
const (
	ExitOK                = 0
	ExitUnknown           = 1
	ExitConfig            = 2
	ExitLocationNotFound  = 3
	ExitTransport         = 4
	ExitUpstream          = 5
	ExitMalformedResponse = 6
)

// ConfigError reports a missing or invalid setting: the API key, a unit flag
// combination or a malformed configuration file. It is always raised before
// any network activity.
type ConfigError struct {
	Field   string // Setting or flag that failed, e.g. "apis.openweather"
	Message string // Human-readable explanation
	Cause   error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// LocationNotFound reports a location that could not be resolved into a
// query usable by the weather endpoint.
type LocationNotFound struct {
	Input string // The location as the user typed it
	Cause error
}

func (e *LocationNotFound) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("location not found: %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("location not found: %q", e.Input)
}

func (e *LocationNotFound) Unwrap() error {
	return e.Cause
}

// UpstreamError reports a non-2xx response from the provider
type UpstreamError struct {
	Status  int    // HTTP status code
	Message string // Provider's "message" field, when the body carried one
	Body    string // Raw response body, truncated
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("OpenWeather API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("OpenWeather API error (status %d)", e.Status)
}

// MalformedResponse reports a 2xx response that lacks a required field or
// carries it with the wrong shape.
type MalformedResponse struct {
	Path   string // Field path, e.g. "main.temp" or "weather[0].description"
	Reason string
}

func (e *MalformedResponse) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed response: %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed response: missing %s", e.Path)
}

// ExitCode maps an error to the process exit code for its kind.
// LocationNotFound is checked before TransportError and UpstreamError since
// it wraps them when geocoding fails.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr       *ConfigError
		notFound     *LocationNotFound
		transportErr *TransportError
		upstreamErr  *UpstreamError
		malformed    *MalformedResponse
	)

	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &notFound):
		return ExitLocationNotFound
	case errors.As(err, &transportErr):
		return ExitTransport
	case errors.As(err, &upstreamErr):
		return ExitUpstream
	case errors.As(err, &malformed):
		return ExitMalformedResponse
	default:
		return ExitUnknown
	}
}

// Diagnostic flattens an error into the single line printed by the CLI
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}

// TruncateBody shortens a response body for inclusion in an error. The cut
// never splits a UTF-8 sequence.
func TruncateBody(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
