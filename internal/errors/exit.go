package errors

import "errors"

// Exit codes returned by the composer process.
const (
	// ExitSuccess indicates the build completed.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitUsageError indicates missing or malformed command-line arguments.
	ExitUsageError = 2

	// ExitValidationError indicates the system spec could not be decoded or resolved.
	ExitValidationError = 3

	// ExitNotFound indicates a spec file, component image or tool was not found.
	ExitNotFound = 4

	// ExitInternalError indicates an internal invariant or architecture check failed.
	ExitInternalError = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed is set when the command layer already reported the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return ExitCodeName(e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrInvariant), errors.Is(err, ErrArchitecture):
		return ExitInternalError
	default:
		return ExitGeneralError
	}
}

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitUsageError:
		return "Usage Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitNotFound:
		return "Not Found"
	case ExitInternalError:
		return "Internal Error"
	default:
		return "Unknown"
	}
}
