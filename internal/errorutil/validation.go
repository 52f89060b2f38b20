package errorutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string // The field that failed validation
	Rule    string // The validation rule that failed
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: failed rule '%s'", e.Field, e.Rule)
}

// ValidationErrors collects validation errors from several fields
type ValidationErrors struct {
	Errors []*ValidationError
}

// Add records err if it is non-nil
func (e *ValidationErrors) Add(err *ValidationError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are validation errors
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// AsConfigError folds the collected errors into one ConfigError, or returns
// nil when there are none.
func (e *ValidationErrors) AsConfigError() error {
	if !e.HasErrors() {
		return nil
	}
	if len(e.Errors) == 1 {
		return &ConfigError{Field: e.Errors[0].Field, Message: e.Errors[0].Message}
	}
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Error()
	}
	return &ConfigError{Message: strings.Join(messages, "; ")}
}

// ValidateRequired checks if a field has a non-empty value
func ValidateRequired(field string, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Rule:    "required",
			Message: "field is required and cannot be empty",
		}
	}
	return nil
}

// ValidateIntRange checks if an integer value is within a specified range
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Rule:    "int_range",
			Message: fmt.Sprintf("value must be between %d and %d, got %d", min, max, value),
		}
	}
	return nil
}

// ValidateEnum checks if a value is one of the allowed enum values
func ValidateEnum(field string, value string, allowedValues []string) *ValidationError {
	value = strings.TrimSpace(strings.ToLower(value))
	for _, allowed := range allowedValues {
		if strings.ToLower(allowed) == value {
			return nil
		}
	}

	return &ValidationError{
		Field:   field,
		Rule:    "enum",
		Message: fmt.Sprintf("value must be one of: %s, got '%s'", strings.Join(allowedValues, ", "), value),
	}
}

// ValidateURL checks if a string is an absolute http(s) URL
func ValidateURL(field string, value string) *ValidationError {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}

	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			Field:   field,
			Rule:    "url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got '%s'", value),
		}
	}
	return nil
}

// ValidateCountryCode checks for a two-letter ISO 3166 country code
func ValidateCountryCode(field string, value string) *ValidationError {
	value = strings.TrimSpace(value)
	if len(value) != 2 || strings.ToUpper(value) != value || strings.ContainsAny(value, "0123456789") {
		return &ValidationError{
			Field:   field,
			Rule:    "country_code",
			Message: fmt.Sprintf("must be a two-letter upper-case country code, got '%s'", value),
		}
	}
	return nil
}

// ValidateAPIKey checks if an API key has a reasonable format. The key value
// itself is never echoed back.
func ValidateAPIKey(field string, value string, minLength int) *ValidationError {
	value = strings.TrimSpace(value)
	if value == "" {
		return &ValidationError{
			Field:   field,
			Rule:    "required",
			Message: "API key is required (set it in the config file or OPENWEATHER_API_KEY)",
		}
	}

	if len(value) < minLength {
		return &ValidationError{
			Field:   field,
			Rule:    "min_length",
			Message: fmt.Sprintf("API key too short, expected at least %d characters", minLength),
		}
	}

	placeholders := []string{
		"your-api-key-here",
		"your-openweather-api-key-here",
		"replace-with-your-key",
	}
	lowerValue := strings.ToLower(value)
	for _, placeholder := range placeholders {
		if lowerValue == placeholder {
			return &ValidationError{
				Field:   field,
				Rule:    "placeholder",
				Message: "API key appears to be a placeholder value",
			}
		}
	}

	return nil
}
