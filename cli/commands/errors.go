package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/basalt/core"
)

// Exit codes for CLI commands.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error onto its exit code. Errors that already carry
// a code keep it.
func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, core.ErrValidation):
		return ExitValidation
	case errors.Is(err, core.ErrAPI):
		return ExitAPI
	case errors.Is(err, core.ErrTransport):
		return ExitNetwork
	default:
		return ExitValidation
	}
}

// reportError prints err to stderr and returns it with an exit code attached.
func (a *App) reportError(err error) error {
	code := exitCodeFor(err)

	if a.jsonOutput {
		a.printErrorJSON(err)
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if e, ok := core.AsError(err); ok && e.Kind() == core.KindAPI {
			fmt.Fprintf(a.stderr, "  %s, status: %d\n", e.Name(), e.Status)
		}
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee
	}
	return exitWithCode(code, err)
}

func (a *App) printErrorJSON(err error) {
	body := map[string]any{
		"type":    "error",
		"message": err.Error(),
	}
	if e, ok := core.AsError(err); ok {
		body["type"] = e.Name()
		body["message"] = e.Message
		if e.Status != 0 {
			body["status"] = e.Status
		}
		if e.StatusCode != "" {
			body["code"] = e.StatusCode
		}
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": body})
}
