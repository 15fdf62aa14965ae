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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

var (
	_ propstore.Opener  = (*EmbeddedBackend)(nil)
	_ propstore.Catalog = (*EmbeddedBackend)(nil)

	errStoreReleased = errors.New("property store handle already released")
	errNotWritable   = errors.New("property store opened without write access")
)

// OpenStore implements propstore.Opener. The store merges three sources,
// later ones winning: the file system, the item's index row and the
// properties written through earlier stores. With GPSBestEffort a failing
// source is logged and skipped; otherwise it fails the open.
func (b *EmbeddedBackend) OpenStore(ctx context.Context, path string, flags propstore.GPSFlags) (propstore.NativeStore, error) {
	if p, err := scope.NewPath(path); err == nil {
		path = p.Abs
	}
	s := &nativeStore{
		backend: b,
		path:    path,
		flags:   flags,
		values:  map[propstore.Key]variant.Value{},
		arena:   variant.NewArena(),
	}

	sources := []struct {
		name string
		load func(context.Context) error
	}{
		{"filesystem", s.loadFileSystem},
		{"index", s.loadIndexRow},
		{"overlay", s.loadOverlay},
	}
	for _, src := range sources {
		if src.name == "filesystem" && flags.Has(propstore.GPSHandlerPropertiesOnly) {
			continue
		}
		if err := src.load(ctx); err != nil {
			if !flags.Has(propstore.GPSBestEffort) {
				return s, fmt.Errorf("%s: %w", src.name, err)
			}
			b.logger.Debug("storage.propstore.source.skipped", "path", path, "source", src.name, "err", err)
		}
	}
	return s, nil
}

// nativeStore is a snapshot of one file's properties plus staged writes.
type nativeStore struct {
	backend *EmbeddedBackend
	path    string
	flags   propstore.GPSFlags

	keys    []propstore.Key
	values  map[propstore.Key]variant.Value
	pending []propstore.Key
	staged  map[propstore.Key]variant.Value

	arena    *variant.Arena
	released bool
}

func (s *nativeStore) put(key propstore.Key, v variant.Value) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

func (s *nativeStore) putNamed(name string, v variant.Value) {
	if p, ok := s.backend.property(name); ok {
		s.put(p.Key, v)
	}
}

func (s *nativeStore) loadFileSystem(context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	props := fileProperties(s.path, info)
	// Catalog order keeps the listing stable.
	for _, p := range builtinProperties {
		if v, ok := props[p.Name]; ok {
			s.putNamed(p.Name, v)
		}
	}
	return nil
}

func (s *nativeStore) loadIndexRow(ctx context.Context) error {
	res, err := s.backend.Query(ctx, fmt.Sprintf(`SELECT * FROM items WHERE %s = ?`, quoteColumn(ColumnPath)), s.path)
	if err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		return nil
	}
	for i, col := range res.Headers {
		x := res.Rows[0][i]
		if x == nil || col == searchTextColumn {
			continue
		}
		p, ok := s.backend.property(col)
		if !ok {
			continue
		}
		v, err := fromColumn(x, p.Type)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		s.put(p.Key, v)
	}
	return nil
}

func (s *nativeStore) loadOverlay(ctx context.Context) error {
	res, err := s.backend.Query(ctx, `SELECT fmtid, pid, vt, value FROM file_properties WHERE path = ? ORDER BY rowid`, s.path)
	if err != nil {
		return err
	}
	for _, row := range res.Rows {
		id, err := uuid.Parse(fmt.Sprint(row[0]))
		if err != nil {
			return err
		}
		pid, err := asInt(row[1])
		if err != nil {
			return err
		}
		vt, err := asInt(row[2])
		if err != nil {
			return err
		}
		v, err := fromColumn(row[3], variant.Tag(vt))
		if err != nil {
			return err
		}
		s.put(propstore.Key{FormatID: id, PID: uint32(pid)}, v)
	}
	return nil
}

func (s *nativeStore) Count() (int, error) {
	if s.released {
		return 0, errStoreReleased
	}
	return len(s.keys), nil
}

func (s *nativeStore) KeyAt(i int) (propstore.Key, error) {
	if s.released {
		return propstore.Key{}, errStoreReleased
	}
	if i < 0 || i >= len(s.keys) {
		return propstore.Key{}, fmt.Errorf("%w: %d of %d", propstore.ErrOutOfRange, i, len(s.keys))
	}
	return s.keys[i], nil
}

func (s *nativeStore) Value(key propstore.Key, dst *variant.Raw) error {
	if s.released {
		return errStoreReleased
	}
	v, ok := s.values[key]
	if !ok {
		*dst = variant.Raw{}
		return nil
	}
	raw, err := variant.Encode(v, s.arena)
	if err != nil {
		return err
	}
	*dst = raw
	return nil
}

func (s *nativeStore) SetValue(key propstore.Key, src variant.Raw) error {
	if s.released {
		return errStoreReleased
	}
	if !s.flags.Has(propstore.GPSReadWrite) {
		return errNotWritable
	}
	v, err := variant.Decode(src, s.arena)
	if err != nil {
		return err
	}
	if s.staged == nil {
		s.staged = map[propstore.Key]variant.Value{}
	}
	if _, ok := s.staged[key]; !ok {
		s.pending = append(s.pending, key)
	}
	s.staged[key] = v
	s.put(key, v)
	return nil
}

// Commit writes staged values to the overlay and to the item's index
// columns. Temporary stores keep their writes in memory.
func (s *nativeStore) Commit() error {
	if s.released {
		return errStoreReleased
	}
	if !s.flags.Has(propstore.GPSReadWrite) {
		return errNotWritable
	}
	if len(s.pending) == 0 || s.flags.Has(propstore.GPSTemporary) {
		s.pending, s.staged = nil, nil
		return nil
	}
	if err := s.backend.writeProperties(context.Background(), s.path, s.pending, s.staged); err != nil {
		return err
	}
	s.pending, s.staged = nil, nil
	return nil
}

func (s *nativeStore) Heap() variant.Heap { return s.arena }

func (s *nativeStore) Release() error {
	if s.released {
		return errStoreReleased
	}
	s.released = true
	s.values, s.staged = nil, nil
	return nil
}

// writeProperties persists property writes for one file in a single
// transaction.
func (b *EmbeddedBackend) writeProperties(ctx context.Context, path string, keys []propstore.Key, values map[propstore.Key]variant.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write properties %s: %w", path, err)
	}
	defer tx.Rollback()

	columns := map[string]variant.Value{}
	for _, key := range keys {
		v := values[key]
		x, err := toColumn(v)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO file_properties (path, fmtid, pid, vt, value) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(path, fmtid, pid) DO UPDATE SET vt = excluded.vt, value = excluded.value`,
			path, key.FormatID.String(), key.PID, int(v.Tag()), x)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		for _, p := range b.props {
			if p.Key == key && !strings.EqualFold(p.Name, ColumnPath) {
				columns[p.Name] = v
			}
		}
	}

	for name, v := range derivedProperties(path) {
		if _, ok := columns[name]; !ok {
			columns[name] = v
		}
	}
	if err := b.upsertColumns(ctx, tx, path, columns); err != nil {
		return fmt.Errorf("write properties %s: %w", path, err)
	}
	if err := b.refreshSearchText(ctx, tx, path); err != nil {
		return fmt.Errorf("write properties %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write properties %s: %w", path, err)
	}
	b.logger.Debug("storage.properties.write", "path", path, "count", len(keys))
	return nil
}
