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

// Package index defines the boundary to the content index: the query
// executor that runs SQL against the index, and the generator that turns
// keyword syntax into that SQL.
//
// The interfaces mirror a classic data-provider stack. A Dialer opens a Conn
// for a provider string, a Conn runs one statement at a time and returns
// Rows, and Rows streams raw variant cells whose buffers live on the Rows'
// Heap. Every cell handed out by Rows.Next is owned by the caller, who must
// release it with variant.Clear against Rows.Heap.
//
// pkg/storage implements these interfaces on SQLite; package indextest
// provides a recording stub for tests.
package index

import (
	"context"

	"github.com/kraklabs/scopeq/pkg/variant"
)

// Provider is the provider identity every connection is opened with.
const Provider = "Provider=Search.CollatorDSO;Extended Properties='Application=Windows';"

// Dialer opens connections to an index query executor.
type Dialer interface {
	Connect(ctx context.Context, provider string) (Conn, error)
}

// Conn is one open connection. It is not safe for concurrent use.
type Conn interface {
	// Query submits sql. The executor must honour ctx for both the
	// submission and the streaming of rows that follows.
	Query(ctx context.Context, sql string) (Rows, error)

	Close() error
}

// Rows is a streaming result.
type Rows interface {
	// Columns returns the column names in select order.
	Columns() []string

	// Next fills dst, one cell per column, and reports whether a row was
	// read. It returns false with a nil error at the end of the result.
	Next(dst []variant.Raw) (bool, error)

	// Heap resolves and releases the pointers held by cells.
	Heap() variant.Heap

	Close() error
}

// QueryGenerator turns keyword syntax into SQL against the unscoped index
// table.
type QueryGenerator interface {
	GenerateSQL(ctx context.Context, query string) (string, error)
}

// QueryGeneratorFunc adapts a function to QueryGenerator.
type QueryGeneratorFunc func(ctx context.Context, query string) (string, error)

// GenerateSQL implements QueryGenerator.
func (f QueryGeneratorFunc) GenerateSQL(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}
