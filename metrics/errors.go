package metrics

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid monitoring configuration detected
// while a dashboard description is being assembled.
type ConfigurationError struct {
	// Component names the builder that rejected the configuration.
	Component string
	// Reason describes what is wrong.
	Reason string
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	if e.Component == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// NewConfigurationError creates a ConfigurationError with a formatted reason.
func NewConfigurationError(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
