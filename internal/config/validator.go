package config

import (
	"fmt"
	"strings"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

var validLogLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates Config.
func (c *Config) Validate() error {
	var errors []ValidationError

	if c.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "version is required",
		})
	}

	if !validLogLevels[c.LogLevel] {
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Message: "log level must be one of trace, debug, info, warn, error",
		})
	}

	if c.Enumeration.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "enumeration.timeout",
			Message: "enumeration timeout must be positive",
		})
	}

	if c.Enumeration.Context == 0 {
		errors = append(errors, ValidationError{
			Field:   "enumeration.context",
			Message: "class context must select at least one server type",
		})
	}

	if c.Isolation.ExitGracePeriod <= 0 {
		errors = append(errors, ValidationError{
			Field:   "isolation.exit_grace_period",
			Message: "exit grace period must be positive",
		})
	}

	if c.Scan.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "scan.concurrency",
			Message: "scan concurrency must be at least 1",
		})
	}

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}
	return nil
}
