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

package variant

import "encoding/binary"

// RawSize is the size in bytes of one variant record.
const RawSize = 24

// Raw is the wire layout of one variant:
//
//	offset 0   tag      uint16
//	offset 2   reserved 3 x uint16 (DECIMAL keeps scale/sign/hi32 here)
//	offset 8   payload  scalar, pointer or int64; vector count (uint32)
//	offset 16  payload  vector element pointer
//
// All integers are little-endian. A zero Raw is an EMPTY variant.
type Raw [RawSize]byte

var le = binary.LittleEndian

// Tag returns the type tag.
func (r *Raw) Tag() Tag { return Tag(le.Uint16(r[0:2])) }

// SetTag stores the type tag.
func (r *Raw) SetTag(t Tag) { le.PutUint16(r[0:2], uint16(t)) }

// Word returns the 64-bit payload at offset 8.
func (r *Raw) Word() uint64 { return le.Uint64(r[8:16]) }

// SetWord stores the 64-bit payload at offset 8.
func (r *Raw) SetWord(v uint64) { le.PutUint64(r[8:16], v) }

// Count returns the vector element count.
func (r *Raw) Count() uint32 { return le.Uint32(r[8:12]) }

// Elems returns the vector element pointer.
func (r *Raw) Elems() uint64 { return le.Uint64(r[16:24]) }

// SetVector stores a vector count and element pointer.
func (r *Raw) SetVector(count uint32, elems uint64) {
	le.PutUint32(r[8:12], count)
	le.PutUint32(r[12:16], 0)
	le.PutUint64(r[16:24], elems)
}

// Reset zeroes the record, leaving an EMPTY variant.
func (r *Raw) Reset() { *r = Raw{} }

// NewRaw builds a record holding an inline 64-bit payload.
func NewRaw(t Tag, word uint64) Raw {
	var r Raw
	r.SetTag(t)
	r.SetWord(word)
	return r
}
