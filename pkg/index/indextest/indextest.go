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

// Package indextest provides an in-memory index executor for tests. It
// records every provider string and statement it receives and serves canned
// rows, optionally filtered by the scope clause of the statement.
package indextest

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

var scopeLiteral = regexp.MustCompile(`(?i)SCOPE\s*=\s*'file:((?:[^']|'')*)'`)

// Executor is a recording index.Dialer.
type Executor struct {
	// ScopeColumn, when set, names the column holding each row's item path.
	// Rows outside the scope clause of the statement are then skipped.
	ScopeColumn string

	// ConnectErr and QueryErr are returned by Connect and Query when set.
	ConnectErr error
	QueryErr   error

	// FailAt makes Next fail with RowErr once FailAt rows have been read.
	FailAt int
	RowErr error

	// Stall makes Next block until the query context is done.
	Stall bool

	columns []string
	rows    [][]variant.Value
	heap    *variant.Arena

	mu        sync.Mutex
	providers []string
	queries   []string
	openConns int
	openRows  int
}

// New returns an executor serving rows under columns.
func New(columns []string, rows ...[]variant.Value) *Executor {
	return &Executor{
		columns: columns,
		rows:    rows,
		heap:    variant.NewArena(),
		FailAt:  -1,
	}
}

// Heap exposes the arena cells are allocated on, for leak assertions.
func (e *Executor) Heap() *variant.Arena { return e.heap }

// Providers returns every provider string passed to Connect.
func (e *Executor) Providers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.providers...)
}

// Queries returns every statement passed to Query, in order.
func (e *Executor) Queries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.queries...)
}

// LastQuery returns the most recent statement, or "".
func (e *Executor) LastQuery() string {
	q := e.Queries()
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

// OpenConns returns the number of connections not yet closed.
func (e *Executor) OpenConns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openConns
}

// OpenRows returns the number of results not yet closed.
func (e *Executor) OpenRows() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openRows
}

// Connect implements index.Dialer.
func (e *Executor) Connect(ctx context.Context, provider string) (index.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.providers = append(e.providers, provider)
	if e.ConnectErr != nil {
		return nil, e.ConnectErr
	}
	e.openConns++
	return &conn{e: e}, nil
}

type conn struct {
	e      *Executor
	closed bool
}

func (c *conn) Query(ctx context.Context, sql string) (index.Rows, error) {
	e := c.e
	e.mu.Lock()
	e.queries = append(e.queries, sql)
	e.mu.Unlock()

	if c.closed {
		return nil, errors.New("indextest: connection closed")
	}
	if e.QueryErr != nil {
		return nil, e.QueryErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := e.rows
	if m := scopeLiteral.FindStringSubmatch(sql); m != nil && e.ScopeColumn != "" {
		rows = e.inScope(strings.ReplaceAll(m[1], "''", "'"))
	}

	e.mu.Lock()
	e.openRows++
	e.mu.Unlock()
	return &result{ctx: ctx, e: e, rows: rows}, nil
}

func (c *conn) Close() error {
	if c.closed {
		return errors.New("indextest: connection closed twice")
	}
	c.closed = true
	c.e.mu.Lock()
	c.e.openConns--
	c.e.mu.Unlock()
	return nil
}

func (e *Executor) inScope(url string) [][]variant.Value {
	col := -1
	for i, name := range e.columns {
		if strings.EqualFold(name, e.ScopeColumn) {
			col = i
		}
	}
	if col < 0 {
		return e.rows
	}
	var out [][]variant.Value
	for _, row := range e.rows {
		if col < len(row) && scope.Contains(url, row[col].String()) {
			out = append(out, row)
		}
	}
	return out
}

type result struct {
	ctx    context.Context
	e      *Executor
	rows   [][]variant.Value
	pos    int
	closed bool
}

func (r *result) Columns() []string  { return r.e.columns }
func (r *result) Heap() variant.Heap { return r.e.heap }

func (r *result) Next(dst []variant.Raw) (bool, error) {
	if r.closed {
		return false, errors.New("indextest: rows closed")
	}
	if r.e.Stall {
		<-r.ctx.Done()
		return false, r.ctx.Err()
	}
	if err := r.ctx.Err(); err != nil {
		return false, err
	}
	if r.e.FailAt >= 0 && r.pos == r.e.FailAt {
		return false, r.e.RowErr
	}
	if r.pos >= len(r.rows) {
		return false, nil
	}
	row := r.rows[r.pos]
	r.pos++
	for i := range dst {
		var v variant.Value = variant.Empty{}
		if i < len(row) && row[i] != nil {
			v = row[i]
		}
		raw, err := variant.Encode(v, r.e.heap)
		if err != nil {
			for j := 0; j < i; j++ {
				_ = variant.Clear(&dst[j], r.e.heap)
			}
			return false, err
		}
		dst[i] = raw
	}
	return true, nil
}

func (r *result) Close() error {
	if r.closed {
		return errors.New("indextest: rows closed twice")
	}
	r.closed = true
	r.e.mu.Lock()
	r.e.openRows--
	r.e.mu.Unlock()
	return nil
}
