package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes of the mheg binary.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // scenarios failed, carousel invalid, engine stopped on error
	ExitCommandError = 2 // bad arguments, missing carousel or database
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Errors that are not ExitErrors map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope every command writes with --format json.
type CLIResponse struct {
	Status   string    `json:"status"` // "ok" or "error"
	Carousel string    `json:"carousel,omitempty"`
	Session  string    `json:"session,omitempty"`
	Data     any       `json:"data,omitempty"`
	Error    *CLIError `json:"error,omitempty"`
}

// CLIError describes why a command failed.
type CLIError struct {
	Code    string `json:"code"` // E0xx from the CLI, E1xx from validation
	Message string `json:"message"`
	Group   string `json:"group,omitempty"`
}

func (e *CLIError) String() string {
	if e.Group != "" {
		return fmt.Sprintf("Error [%s] %s: %s", e.Code, e.Group, e.Message)
	}
	return fmt.Sprintf("Error [%s]: %s", e.Code, e.Message)
}

// OutputFormatter writes command results as text or JSON. Carousel and
// Session are stamped onto every JSON response.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; keeps JSON on Writer clean
	Verbose   bool

	Carousel string
	Session  string
}

func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Respond writes an indented JSON response. A non-nil cerr marks it as an
// error response.
func (f *OutputFormatter) Respond(data any, cerr *CLIError) error {
	resp := CLIResponse{
		Status:   "ok",
		Carousel: f.Carousel,
		Session:  f.Session,
		Data:     data,
		Error:    cerr,
	}
	if cerr != nil {
		resp.Status = "error"
	}
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Error reports a command failure in the configured format.
func (f *OutputFormatter) Error(cerr CLIError) error {
	if f.JSON() {
		return f.Respond(nil, &cerr)
	}
	_, err := fmt.Fprintln(f.Writer, cerr.String())
	return err
}

// VerboseLog prints a diagnostic line when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func newFormatter(opts *RootOptions, w, errW io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    w,
		ErrWriter: errW,
		Verbose:   opts.Verbose,
	}
}
