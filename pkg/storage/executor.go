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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// ErrProvider is returned when a connection asks for a provider other than
// the search collator.
var ErrProvider = errors.New("unsupported index provider")

var _ index.Dialer = (*EmbeddedBackend)(nil)

// Connect implements index.Dialer.
func (b *EmbeddedBackend) Connect(ctx context.Context, provider string) (index.Conn, error) {
	if !strings.Contains(strings.ToLower(provider), "search.collatordso") {
		return nil, fmt.Errorf("%w: %q", ErrProvider, provider)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	c, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	b.logger.Debug("storage.conn.open", "path", b.config.Path)
	return &conn{backend: b, conn: c}, nil
}

type conn struct {
	backend *EmbeddedBackend
	conn    *sql.Conn
}

func (c *conn) Query(ctx context.Context, stmt string) (index.Rows, error) {
	translated, err := c.backend.translate(stmt)
	if err != nil {
		return nil, err
	}
	c.backend.logger.Debug("storage.query", "sql", stmt, "translated", translated)

	sqlRows, err := c.conn.QueryContext(ctx, translated)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	cols, err := sqlRows.Columns()
	if err != nil {
		sqlRows.Close()
		return nil, fmt.Errorf("query failed: %w", err)
	}

	types := make([]variant.Tag, len(cols))
	for i, name := range cols {
		if p, ok := c.backend.property(name); ok {
			types[i] = p.Type
		}
	}
	return &rows{rows: sqlRows, columns: cols, types: types, arena: variant.NewArena()}, nil
}

func (c *conn) Close() error {
	return c.conn.Close()
}

// rows streams SQLite rows as raw cells allocated on a private arena.
type rows struct {
	rows    *sql.Rows
	columns []string
	types   []variant.Tag
	arena   *variant.Arena
}

func (r *rows) Columns() []string { return r.columns }

func (r *rows) Heap() variant.Heap { return r.arena }

func (r *rows) Next(dst []variant.Raw) (bool, error) {
	if len(dst) != len(r.columns) {
		return false, fmt.Errorf("row buffer has %d cells, result has %d columns", len(dst), len(r.columns))
	}
	if !r.rows.Next() {
		return false, r.rows.Err()
	}

	cells := make([]any, len(r.columns))
	ptrs := make([]any, len(cells))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return false, fmt.Errorf("read row: %w", err)
	}

	for i, x := range cells {
		v, err := fromColumn(x, r.types[i])
		if err != nil {
			v = variant.String{T: variant.TagLPWStr, V: fmt.Sprint(x)}
		}
		raw, err := variant.Encode(v, r.arena)
		if err != nil {
			for j := range i {
				_ = variant.Clear(&dst[j], r.arena)
			}
			return false, fmt.Errorf("encode %s: %w", r.columns[i], err)
		}
		dst[i] = raw
	}
	return true, nil
}

func (r *rows) Close() error {
	return r.rows.Close()
}
