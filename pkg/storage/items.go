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
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// Item is one indexed file: its display path plus property values by
// canonical name.
type Item struct {
	Path       string
	Properties map[string]variant.Value
}

// UpsertItem inserts or updates an item. Path-derived properties (URL, name
// and extension) are filled in unless given, and the full-text column is
// rebuilt from the merged row.
func (b *EmbeddedBackend) UpsertItem(ctx context.Context, item Item) error {
	if item.Path == "" {
		return fmt.Errorf("upsert item: empty path")
	}
	props := make(map[string]variant.Value, len(item.Properties)+3)
	for name, v := range item.Properties {
		props[name] = v
	}
	for name, v := range derivedProperties(item.Path) {
		if _, ok := props[name]; !ok {
			props[name] = v
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", item.Path, err)
	}
	defer tx.Rollback()

	if err := b.upsertColumns(ctx, tx, item.Path, props); err != nil {
		return fmt.Errorf("upsert %s: %w", item.Path, err)
	}
	if err := b.refreshSearchText(ctx, tx, item.Path); err != nil {
		return fmt.Errorf("upsert %s: %w", item.Path, err)
	}
	return tx.Commit()
}

// upsertColumns writes props onto the item row. Caller holds b.mu.
func (b *EmbeddedBackend) upsertColumns(ctx context.Context, tx *sql.Tx, path string, props map[string]variant.Value) error {
	names := make([]string, 0, len(props))
	for name := range props {
		if strings.EqualFold(name, ColumnPath) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	cols := []string{quoteColumn(ColumnPath)}
	args := []any{path}
	var sets []string
	for _, name := range names {
		p, ok := b.props[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown property %s", name)
		}
		x, err := toColumn(props[name])
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		col := quoteColumn(p.Name)
		cols = append(cols, col)
		args = append(args, x)
		sets = append(sets, col+" = excluded."+col)
	}

	stmt := fmt.Sprintf(`INSERT INTO items (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if len(sets) > 0 {
		stmt += fmt.Sprintf(` ON CONFLICT(%s) DO UPDATE SET %s`, quoteColumn(ColumnPath), strings.Join(sets, ", "))
	} else {
		stmt += fmt.Sprintf(` ON CONFLICT(%s) DO NOTHING`, quoteColumn(ColumnPath))
	}
	_, err := tx.ExecContext(ctx, stmt, args...)
	return err
}

// refreshSearchText rebuilds the full-text column of one item. Caller
// holds b.mu.
func (b *EmbeddedBackend) refreshSearchText(ctx context.Context, tx *sql.Tx, path string) error {
	var (
		cols  []string
		types []variant.Tag
	)
	for _, name := range searchTextSources {
		if p, ok := b.props[strings.ToLower(name)]; ok {
			cols = append(cols, quoteColumn(p.Name))
			types = append(types, p.Type)
		}
	}

	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s = ?`, strings.Join(cols, ", "), quoteColumn(ColumnPath))
	if err := tx.QueryRowContext(ctx, query, path).Scan(ptrs...); err != nil {
		return err
	}

	var parts []string
	for i, x := range cells {
		v, err := fromColumn(x, types[i])
		if err != nil {
			continue
		}
		if text := columnText(v); text != "" {
			parts = append(parts, text)
		}
	}
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE items SET %s = ? WHERE %s = ?`, searchTextColumn, quoteColumn(ColumnPath)),
		strings.Join(parts, "\n"), path)
	return err
}

// DeleteItem removes an item and its property overlay. It reports whether
// the item existed.
func (b *EmbeddedBackend) DeleteItem(ctx context.Context, path string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, ErrClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM items WHERE %s = ?`, quoteColumn(ColumnPath)), path)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_properties WHERE path = ?`, path); err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}

func derivedProperties(path string) map[string]variant.Value {
	out := map[string]variant.Value{}
	if p, err := scope.NewPath(path); err == nil {
		out[ColumnURL] = variant.String{T: variant.TagLPWStr, V: "file:" + p.URL}
	}
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	out[ColumnName] = variant.String{T: variant.TagLPWStr, V: name}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		out[ColumnExtension] = variant.String{T: variant.TagLPWStr, V: strings.ToLower(name[i:])}
	}
	return out
}
