package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitguard/internal/logger"
)

var (
	// ErrNotFound is returned when a referenced item, rule, grant or log entry is absent
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfiguration is returned for non-positive requirements or quantities
	// and other rule or item settings that can never be satisfied
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrStoreFailure is returned when the underlying persistence operation fails
	ErrStoreFailure = errors.New("store failure")
)

// NotFound builds an ErrNotFound error naming the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Invalid builds an ErrInvalidConfiguration error with a description.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// WrapStore marks err as a persistence failure of op. Both ErrStoreFailure and
// the driver error stay reachable through errors.Is.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsInvalid(err error) bool  { return errors.Is(err, ErrInvalidConfiguration) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
