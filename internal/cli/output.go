package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A race or scenario failed
	ExitCommandError = 2 // Bad settings, unusable paths or pools too small
)

// Error codes reported in the JSON error envelope.
const (
	CodeConfig     = "E_CONFIG"      // settings file unreadable or invalid
	CodeCapacity   = "E_CAPACITY"    // identity pools cannot supply a unique draw
	CodeDraw       = "E_DRAW_FAILED" // roster or schedule draw failed otherwise
	CodeJournal    = "E_JOURNAL"     // journal could not be opened
	CodeMetrics    = "E_METRICS"     // metrics listener could not be started
	CodeRunFailed  = "E_RUN_FAILED"  // race could not start or a run failed
	CodeServe      = "E_SERVE"       // presentation server stopped with an error
	CodeScenarios  = "E_SCENARIOS"   // scenarios directory missing or unreadable
	CodeTestFailed = "E_TEST_FAILED" // one or more scenarios failed
)

// ExitError is a command failure. Code becomes the process exit status and
// Reason the code of the JSON error envelope.
type ExitError struct {
	Code    int
	Reason  string
	Message string
	Details any   // extra context for the envelope (optional)
	Err     error // underlying error (optional)

	// reported is set once the envelope for this error has been written.
	reported bool
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

// commandError reports a problem with how the command was invoked.
func commandError(reason, message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Reason: reason, Message: message, Err: err}
}

// raceFailure reports a race, server or scenario that ran and failed.
func raceFailure(reason, message string, err error) *ExitError {
	return &ExitError{Code: ExitFailure, Reason: reason, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as JSON envelopes or text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse. Code is one of the Code*
// constants.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Render outputs data as JSON, or calls text to write it for humans.
func (f *OutputFormatter) Render(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	return text(f.Writer)
}

// Error outputs an error in the configured format. Text details are shown
// only with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
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

// Fail reports err before the command returns it. JSON output gets an error
// envelope on Writer. Text output is left to the caller of Execute, except
// that --verbose adds the error code and details on ErrWriter.
// Errors that are not ExitErrors, or were reported already, pass through.
func (f *OutputFormatter) Fail(err error) error {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.reported {
		return err
	}
	exitErr.reported = true

	details := exitErr.Details
	if details == nil && exitErr.Err != nil {
		details = exitErr.Err.Error()
	}

	if f.Format == "json" {
		_ = f.Error(exitErr.Reason, exitErr.Message, details)
		return err
	}
	if f.Verbose {
		w := f.ErrWriter
		if w == nil {
			w = f.Writer
		}
		diag := &OutputFormatter{Format: f.Format, Writer: w, Verbose: true}
		_ = diag.Error(exitErr.Reason, exitErr.Message, details)
	}
	return err
}
