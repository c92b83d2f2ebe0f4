package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/dbassert/internal/harness"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Every check passed
	ExitFailure      = 1 // One or more checks failed
	ExitCommandError = 2 // Command error (bad arguments, unreadable suite, query errors, etc.)
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeInvalidArgs  = "E002" // Invalid flags or arguments
	ErrCodeSuiteLoad    = "E003" // Suite file could not be loaded
	ErrCodeDatabase     = "E004" // Database could not be opened
	ErrCodeFixtures     = "E005" // Fixtures failed to apply
	ErrCodeCheckFailed  = "E010" // One or more checks failed
	ErrCodeCheckErrored = "E011" // One or more checks could not execute
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	RunID     string // Attached to every JSON response
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`           // "ok" or "error"
	Data   any       `json:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty"`  // error details
	RunID  string    `json:"run_id,omitempty"` // run correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "ok",
			Data:   data,
			RunID:  f.RunID,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			RunID: f.RunID,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Result outputs a suite result and returns the error that sets the exit
// code: nil when every check passed, ExitCommandError when any check could
// not execute, ExitFailure otherwise.
func (f *OutputFormatter) Result(result *harness.Result) error {
	passed, failed, errored := result.Counts()

	var code int
	var errCode, message string
	switch {
	case errored > 0:
		code, errCode = ExitCommandError, ErrCodeCheckErrored
		message = fmt.Sprintf("%d check(s) errored, %d failed", errored, failed)
	case failed > 0:
		code, errCode = ExitFailure, ErrCodeCheckFailed
		message = fmt.Sprintf("%d check(s) failed", failed)
	}

	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result, RunID: f.RunID}
		if code != ExitSuccess {
			resp.Status = "error"
			resp.Error = &CLIError{Code: errCode, Message: message}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprint(f.Writer, result.Render())
		if code == ExitSuccess {
			fmt.Fprintf(f.Writer, "✓ All %d check(s) passed\n", passed)
		}
	}

	if code != ExitSuccess {
		return NewExitError(code, message)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}
