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

package storage

import (
	"context"
)

// Backend is the interface the local index store implements. It runs plain
// SQLite statements against the index tables, below the SystemIndex dialect
// that index.Dialer speaks.
type Backend interface {
	// Query executes a read-only statement and returns the materialized rows.
	Query(ctx context.Context, sql string, args ...any) (*QueryResult, error)

	// Execute runs a mutation.
	Execute(ctx context.Context, sql string, args ...any) error

	// Path returns the index file.
	Path() string

	// Close releases any resources held by the backend.
	Close() error
}

// QueryResult represents the result of a query.
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// Column returns the index of the named header, or -1.
func (r *QueryResult) Column(name string) int {
	for i, h := range r.Headers {
		if h == name {
			return i
		}
	}
	return -1
}
