package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/turtle/internal/turtle"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure, non-deterministic replay, rejected command
	ExitCommandError = 2 // Bad flags, unreadable files, database errors
)

// ExitError carries the process exit code for a failed command.
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
// Returns ExitFailure (1) if the error is not an ExitError.
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

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w io.Writer, resp CLIResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// WriteError renders err for the user: a CLIResponse in json format, a
// single line otherwise.
func WriteError(w io.Writer, format string, err error) {
	if format == "json" {
		_ = writeJSON(w, CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    fmt.Sprintf("EXIT_%d", GetExitCode(err)),
				Message: err.Error(),
			},
		})
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// StateView is the JSON form of a turtle state.
type StateView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Color string  `json:"color"`
	Pen   string  `json:"pen"`
}

func viewOf(s turtle.State) StateView {
	return StateView{
		X:     s.Position.X,
		Y:     s.Position.Y,
		Angle: s.Angle,
		Color: s.Color.String(),
		Pen:   s.Pen.String(),
	}
}

func (v StateView) String() string {
	return fmt.Sprintf("position=(%g,%g) angle=%g color=%s pen=%s", v.X, v.Y, v.Angle, v.Color, v.Pen)
}
