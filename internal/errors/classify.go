// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"context"
	"errors"
	"io/fs"

	"github.com/kraklabs/scopeq/pkg/aqs"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

// FromError maps library errors onto UserErrors. A UserError anywhere in
// the chain is returned as is; unknown errors become internal errors.
func FromError(err error) *UserError {
	if err == nil {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}

	cause := err.Error()
	switch {
	case errors.Is(err, context.Canceled):
		return newUserError(ExitInterrupted, "Canceled", "", "", err)

	case errors.Is(err, search.ErrQueryTimeout):
		return NewTimeoutError("Query timed out", cause,
			"Raise --timeout or narrow the query with more terms", err)

	case errors.Is(err, search.ErrInvalidPath):
		return &UserError{
			Message:  "Invalid library root",
			Cause:    cause,
			Fix:      `Pass an existing directory, a drive path such as C:\Docs or a share such as \\host\share`,
			ExitCode: ExitInput,
			Err:      err,
		}

	case errors.Is(err, search.ErrQuerySyntaxMismatch):
		return &UserError{
			Message:  "Query cannot be scoped",
			Cause:    cause,
			Fix:      "Write the statement as SELECT <columns> FROM SystemIndex [WHERE <condition>]",
			ExitCode: ExitInput,
			Err:      err,
		}

	case errors.Is(err, aqs.ErrSyntax), errors.Is(err, search.ErrQueryGeneration):
		return &UserError{
			Message:  "Cannot translate keyword query",
			Cause:    cause,
			Fix:      `Check quotes and parentheses; properties look like author:smith or size:>1mb`,
			ExitCode: ExitInput,
			Err:      err,
		}

	case errors.Is(err, storage.ErrDialect), errors.Is(err, storage.ErrUnknownHost),
		errors.Is(err, storage.ErrFullTextSyntax):
		return &UserError{
			Message:  "Query not supported by the local index",
			Cause:    cause,
			Fix:      "Use SCOPE, DIRECTORY, CONTAINS, FREETEXT and plain comparisons on System.* columns",
			ExitCode: ExitInput,
			Err:      err,
		}

	case errors.Is(err, search.ErrQueryExecution):
		return NewIndexError("Index query failed", cause,
			"Check the column names with 'scopeq props <file>' and run with --verbose for details", err)

	case errors.Is(err, propstore.ErrReadOnly):
		return &UserError{
			Message:  "Property store is read-only",
			Cause:    cause,
			Fix:      "Open it with --mode read-write to change properties",
			ExitCode: ExitInput,
			Err:      err,
		}

	case errors.Is(err, propstore.ErrUnknownProperty):
		return &UserError{
			Message:  "Unknown property",
			Cause:    cause,
			Fix:      "Use a canonical name such as System.Title",
			ExitCode: ExitNotFound,
			Err:      err,
		}

	case errors.Is(err, fs.ErrNotExist):
		return &UserError{Message: "File not found", Cause: cause, ExitCode: ExitNotFound, Err: err}

	case errors.Is(err, fs.ErrPermission):
		return NewPermissionError("Permission denied", cause, "Check the file permissions", err)

	case errors.Is(err, propstore.ErrPropertyAccess), errors.Is(err, propstore.ErrUnsupportedPropertyType):
		return NewIndexError("Cannot read properties", cause,
			"Retry with --mode best-effort to skip unreadable sources", err)
	}

	return NewInternalError("Unexpected error", cause,
		"This is a bug. Please report it with the output of --verbose", err)
}
