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

package propstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kraklabs/scopeq/pkg/variant"
)

var (
	// ErrPropertyAccess marks a failed open, get, set or commit.
	ErrPropertyAccess = errors.New("property access failed")

	// ErrUnsupportedPropertyType marks a value that could not be decoded or
	// encoded.
	ErrUnsupportedPropertyType = errors.New("unsupported property data type")

	// ErrReadOnly is returned by Set and Commit on a store opened read-only.
	ErrReadOnly = errors.New("property store is read-only")

	// ErrOutOfRange is returned by KeyAt for an index outside [0, Count).
	ErrOutOfRange = errors.New("property index out of range")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("property store is closed")
)

// Opener obtains native property store handles.
type Opener interface {
	// OpenStore opens the store of the file at path. On failure it may
	// still return a handle, which the caller releases.
	OpenStore(ctx context.Context, path string, flags GPSFlags) (NativeStore, error)
}

// NativeStore is one native property store handle.
type NativeStore interface {
	Count() (int, error)
	KeyAt(i int) (Key, error)

	// Value fills dst with the property's value; the caller owns dst and
	// clears it against Heap. Missing properties come back EMPTY.
	Value(key Key, dst *variant.Raw) error

	// SetValue stages a copy of src; the caller keeps ownership of src.
	SetValue(key Key, src variant.Raw) error

	Commit() error
	Heap() variant.Heap
	Release() error
}

// Property is one key with its decoded value.
type Property struct {
	Key   Key
	Value variant.Value
}

// Store is an open property store. It is not safe for concurrent use.
type Store struct {
	native NativeStore
	path   string
	mode   Mode
	logger *slog.Logger
	closed bool
}

// Open opens the property store of the file at path. logger may be nil.
func Open(ctx context.Context, opener Opener, path string, mode Mode, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	native, err := opener.OpenStore(ctx, path, mode.Flags())
	if err != nil {
		if native != nil {
			release(native, logger, path)
		}
		return nil, fmt.Errorf("%w: open %s (%s): %w", ErrPropertyAccess, path, mode, err)
	}

	s := &Store{native: native, path: path, mode: mode, logger: logger}
	if mode != ModeBestEffort {
		if _, err := native.Count(); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: open %s (%s): %w", ErrPropertyAccess, path, mode, err)
		}
	}

	logger.Debug("propstore.open", "path", path, "mode", mode.String(), "flags", fmt.Sprintf("0x%02x", uint32(mode.Flags())))
	return s, nil
}

// Path returns the file the store belongs to.
func (s *Store) Path() string { return s.path }

// Mode returns the access mode.
func (s *Store) Mode() Mode { return s.mode }

// Count returns the number of properties.
func (s *Store) Count() (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	n, err := s.native.Count()
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrPropertyAccess, err)
	}
	return n, nil
}

// KeyAt returns the key at index i.
func (s *Store) KeyAt(i int) (Key, error) {
	n, err := s.Count()
	if err != nil {
		return Key{}, err
	}
	if i < 0 || i >= n {
		return Key{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, n)
	}
	k, err := s.native.KeyAt(i)
	if err != nil {
		return Key{}, fmt.Errorf("%w: key %d: %w", ErrPropertyAccess, i, err)
	}
	return k, nil
}

// Get returns the decoded value of key.
func (s *Store) Get(key Key) (variant.Value, error) {
	if s.closed {
		return nil, ErrClosed
	}
	heap := s.native.Heap()

	var raw variant.Raw
	defer s.clear(&raw, heap, key)

	if err := s.native.Value(key, &raw); err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrPropertyAccess, key, err)
	}
	v, err := variant.Decode(raw, heap)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %w", ErrUnsupportedPropertyType, key, raw.Tag(), err)
	}
	return v, nil
}

// Set encodes value and stages it under key.
func (s *Store) Set(key Key, value variant.Value) error {
	if s.closed {
		return ErrClosed
	}
	if !s.mode.Writable() {
		return fmt.Errorf("%w: set %s", ErrReadOnly, key)
	}
	heap := s.native.Heap()

	raw, err := variant.Encode(value, heap)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsupportedPropertyType, key, err)
	}
	defer s.clear(&raw, heap, key)

	if err := s.native.SetValue(key, raw); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrPropertyAccess, key, err)
	}
	return nil
}

// SetString stages a text value under key.
func (s *Store) SetString(key Key, value string) error {
	return s.Set(key, variant.String{T: variant.TagLPWStr, V: value})
}

// Commit flushes staged writes. Atomicity is the native store's contract.
func (s *Store) Commit() error {
	if s.closed {
		return ErrClosed
	}
	if !s.mode.Writable() {
		return fmt.Errorf("%w: commit", ErrReadOnly)
	}
	if err := s.native.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %w", ErrPropertyAccess, s.path, err)
	}
	s.logger.Debug("propstore.commit", "path", s.path, "mode", s.mode.String())
	return nil
}

// All returns every property in store order. In ModeBestEffort a value that
// cannot be read becomes an Unsupported placeholder; other modes fail.
func (s *Store) All() ([]Property, error) {
	n, err := s.Count()
	if err != nil {
		return nil, err
	}
	props := make([]Property, 0, n)
	for i := 0; i < n; i++ {
		k, err := s.KeyAt(i)
		if err != nil {
			return nil, err
		}
		v, err := s.Get(k)
		if err != nil {
			if s.mode != ModeBestEffort {
				return nil, err
			}
			s.logger.Debug("propstore.get.skipped", "key", k.String(), "err", err)
			v = variant.Unsupported{Text: "(" + ErrUnsupportedPropertyType.Error() + ")"}
		}
		props = append(props, Property{Key: k, Value: v})
	}
	return props, nil
}

// Close releases the native handle. It is safe to call more than once; a
// failed release is logged, not returned.
func (s *Store) Close() {
	if s.closed {
		return
	}
	s.closed = true
	release(s.native, s.logger, s.path)
}

func (s *Store) clear(raw *variant.Raw, heap variant.Heap, key Key) {
	if err := variant.Clear(raw, heap); err != nil {
		s.logger.Warn("propstore.value.release.warning", "key", key.String(), "err", err)
	}
}

func release(native NativeStore, logger *slog.Logger, path string) {
	if err := native.Release(); err != nil {
		logger.Warn("propstore.release.warning", "path", path, "err", err)
	}
}
