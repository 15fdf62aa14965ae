// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/kraklabs/scopeq/pkg/aqs"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"timeout", fmt.Errorf("%w: read: %w: %w", search.ErrQueryExecution, search.ErrQueryTimeout, context.DeadlineExceeded), ExitTimeout, "Query timed out"},
		{"execution", fmt.Errorf("%w: submit: boom", search.ErrQueryExecution), ExitIndex, "Index query failed"},
		{"invalid root", fmt.Errorf("%w: empty root", search.ErrInvalidPath), ExitInput, "Invalid library root"},
		{"syntax mismatch", search.ErrQuerySyntaxMismatch, ExitInput, "Query cannot be scoped"},
		{"keyword syntax", fmt.Errorf("%w: %w", search.ErrQueryGeneration, aqs.ErrSyntax), ExitInput, "Cannot translate keyword query"},
		{"dialect", fmt.Errorf("%w: submit: %w", search.ErrQueryExecution, storage.ErrDialect), ExitInput, "Query not supported by the local index"},
		{"read only", fmt.Errorf("%w: set", propstore.ErrReadOnly), ExitInput, "Property store is read-only"},
		{"unknown property", propstore.ErrUnknownProperty, ExitNotFound, "Unknown property"},
		{"missing file", fmt.Errorf("%w: open: %w", propstore.ErrPropertyAccess, fs.ErrNotExist), ExitNotFound, "File not found"},
		{"permission", fs.ErrPermission, ExitPermission, "Permission denied"},
		{"property access", fmt.Errorf("%w: get", propstore.ErrPropertyAccess), ExitIndex, "Cannot read properties"},
		{"canceled", context.Canceled, ExitInterrupted, "Canceled"},
		{"unknown", errors.New("boom"), ExitInternal, "Unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", got.ExitCode, tt.wantCode)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if !errors.Is(got, tt.err) {
				t.Error("FromError should keep the original error in the chain")
			}
		})
	}
}

func TestFromError_KeepsUserError(t *testing.T) {
	ue := NewConfigError("bad config", "", "", nil)
	if got := FromError(fmt.Errorf("load: %w", ue)); got != ue {
		t.Errorf("FromError() = %v, want the wrapped UserError", got)
	}
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}
}
