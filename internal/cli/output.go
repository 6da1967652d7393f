package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitNotOK        = 1 // assessment verdict was not_ok (for scripting)
	ExitCommandError = 2 // command error (bad flags, database not found, etc.)
)

// ExitError carries a specific exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error // underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// ErrorCode classifies an error into a stable machine-readable code for
// JSON output.
func ErrorCode(err error) string {
	switch {
	case store.IsValidationError(err):
		return "VALIDATION"
	case store.IsUniquenessError(err):
		return "UNIQUENESS_VIOLATION"
	case store.IsReferentialError(err):
		return "REFERENTIAL_INTEGRITY"
	case aggregate.IsCycleError(err):
		return "CYCLE_DETECTED"
	case errors.Is(err, store.ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the envelope for JSON output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for JSON responses.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success outputs a result in the configured format. In text mode the data
// is printed with its String/default formatting; commands that need richer
// text render it themselves and pass the string here.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line when verbose mode is on. In JSON
// mode diagnostics go to ErrWriter so they never corrupt the envelope.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
