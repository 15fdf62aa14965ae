// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kraklabs/scopeq/pkg/scope"
)

var (
	// ErrInvalidPath marks a root that does not exist or cannot be canonicalized.
	ErrInvalidPath = scope.ErrInvalidPath

	// ErrQuerySyntaxMismatch marks SQL without a rewritable SystemIndex reference.
	ErrQuerySyntaxMismatch = scope.ErrQuerySyntaxMismatch

	// ErrQueryExecution marks a statement the executor rejected or abandoned.
	ErrQueryExecution = errors.New("query execution failed")

	// ErrQueryTimeout marks an execution that ran past Options.Timeout. It is
	// always reported together with ErrQueryExecution.
	ErrQueryTimeout = errors.New("query timed out")

	// ErrQueryGeneration marks a keyword query the generator could not turn
	// into SQL.
	ErrQueryGeneration = errors.New("query generation failed")

	// ErrClosed is returned by operations on a closed Session or Cursor.
	ErrClosed = errors.New("search: use of closed session or cursor")
)

// IsRetryable reports whether err is worth retrying unchanged. Only timeouts
// qualify; syntax and path errors will fail the same way again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQueryTimeout)
}

// executionError classifies an executor failure observed under ctx.
func executionError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w: %w", ErrQueryExecution, op, ErrQueryTimeout, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrQueryExecution, op, err)
}
