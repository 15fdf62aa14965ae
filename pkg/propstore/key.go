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
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Key names one property: a format identifier plus a property id within it.
type Key struct {
	FormatID uuid.UUID
	PID      uint32
}

// NewKey builds a key from the text form of a format identifier.
func NewKey(fmtid string, pid uint32) (Key, error) {
	id, err := uuid.Parse(strings.Trim(fmtid, "{}"))
	if err != nil {
		return Key{}, fmt.Errorf("parse format id %q: %w", fmtid, err)
	}
	return Key{FormatID: id, PID: pid}, nil
}

// MustKey is NewKey for constants; it panics on a malformed format id.
func MustKey(fmtid string, pid uint32) Key {
	k, err := NewKey(fmtid, pid)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey parses the form produced by Key.String, "{FMTID} PID".
func ParseKey(s string) (Key, error) {
	fmtid, pid, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Key{}, fmt.Errorf("parse key %q: want \"{FMTID} PID\"", s)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(pid), 10, 32)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: %w", s, err)
	}
	return NewKey(fmtid, uint32(n))
}

// String renders the key as "{FMTID} PID" with an upper-case GUID.
func (k Key) String() string {
	return "{" + strings.ToUpper(k.FormatID.String()) + "} " + strconv.FormatUint(uint64(k.PID), 10)
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k == Key{} }
