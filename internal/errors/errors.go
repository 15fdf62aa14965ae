// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the scopeq CLI.
//
// UserError carries what went wrong, why, and how to fix it, plus the exit
// code the process should end with. FromError classifies the sentinel errors
// of the library packages into UserErrors so that every command reports
// failures the same way.
//
// # Usage Example
//
//	results, err := searcher.PerformQuery(ctx, root, sql)
//	if err != nil {
//	    errors.FatalError(errors.FromError(err), false, false)
//	}
//
// # Formatted Output
//
// Format renders colored terminal output:
//
//	Error: Index query failed
//	Cause: no such column: System.Nope
//	Fix:   Check the column names against 'scopeq props <file>'
//
// FormatVerbose adds the wrapped error chain, one link per line.
//
// # Exit Codes
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (unreadable or invalid config)
//   - ExitIndex (2): Index errors (open failed, query execution failed)
//   - ExitTimeout (3): The query ran past its timeout
//   - ExitInput (4): Invalid user input (bad flags, bad root, bad query)
//   - ExitPermission (5): Permission denied
//   - ExitNotFound (6): File or property not found
//   - ExitInternal (10): Internal errors (bugs, panics)
//   - ExitInterrupted (130): Canceled by the user
package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitIndex      = 2
	ExitTimeout    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6

	// ExitInternal signals "this is a bug that should be reported".
	ExitInternal = 10

	// ExitInterrupted follows the shell convention for SIGINT.
	ExitInterrupted = 130
)

// UserError represents an error with structured context for end users.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred.
	Cause string

	// Fix provides an actionable suggestion.
	Fix string

	// ExitCode is the process exit code for this error.
	ExitCode int

	// Err is the underlying error, kept for errors.Is/As.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewIndexError creates an index error with exit code ExitIndex.
//
// Use this when the index cannot be opened or a statement fails inside the
// query executor.
func NewIndexError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitIndex, msg, cause, fix, err)
}

// NewTimeoutError creates a timeout error with exit code ExitTimeout.
func NewTimeoutError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitTimeout, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
// Input errors typically do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError creates a permission denied error with exit code
// ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError creates a not-found error with exit code ExitNotFound.
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError creates an internal error with exit code ExitInternal.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
	colorChain = color.New(color.Faint)
)

// Format returns the error for terminal display. Color is off when noColor
// is set or NO_COLOR is in the environment. Empty Cause or Fix lines are
// omitted.
//
// The global color.NoColor state is restored before returning.
func (e *UserError) Format(noColor bool) string {
	return e.format(noColor, false)
}

// FormatVerbose is Format followed by the wrapped error chain.
func (e *UserError) FormatVerbose(noColor bool) string {
	return e.format(noColor, true)
}

func (e *UserError) format(noColor, chain bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	if chain {
		for i, link := range Chain(e.Err) {
			out.WriteString(colorChain.Sprintf("  %d. %s\n", i+1, link))
		}
	}
	return out.String()
}

// Chain lists the messages of err and every error it wraps, outermost
// first. Joined errors contribute each branch in order.
func Chain(err error) []string {
	var out []string
	var walk func(error)
	walk = func(err error) {
		for err != nil {
			out = append(out, err.Error())
			switch u := err.(type) {
			case interface{ Unwrap() []error }:
				for _, e := range u.Unwrap() {
					walk(e)
				}
				return
			case interface{ Unwrap() error }:
				err = u.Unwrap()
			default:
				return
			}
		}
	}
	walk(err)
	return out
}

// ErrorJSON represents error information in JSON format.
type ErrorJSON struct {
	Error    string   `json:"error"`
	Cause    string   `json:"cause,omitempty"`
	Fix      string   `json:"fix,omitempty"`
	Chain    []string `json:"chain,omitempty"`
	ExitCode int      `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		Chain:    Chain(e.Err),
		ExitCode: e.ExitCode,
	}
}

// Report writes err to w in the requested form and returns the exit code
// the process should end with. A nil err reports nothing and returns
// ExitSuccess.
func Report(w io.Writer, err error, jsonOutput, verbose bool) int {
	if err == nil {
		return ExitSuccess
	}
	ue := FromError(err)

	switch {
	case jsonOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	case verbose:
		fmt.Fprint(w, ue.FormatVerbose(false))
	default:
		fmt.Fprint(w, ue.Format(false))
	}
	return ue.ExitCode
}

// FatalError reports err on stderr and exits with its code. It returns
// without exiting when err is nil.
func FatalError(err error, jsonOutput, verbose bool) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err, jsonOutput, verbose))
}
