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

// Package variant decodes and encodes tagged, self-describing property values.
//
// A variant travels as a fixed 24-byte Raw record: a 16-bit type tag followed
// by a payload union. Small scalars live inline in the payload; strings,
// vectors and blobs are pointers into a Heap owned by whoever produced the
// record (the index executor or a property store).
//
// # Decoding
//
// Decode turns a Raw record into a Value, a closed sum type with one arm per
// payload shape:
//
//	v, err := variant.Decode(raw, heap)
//	defer variant.Clear(&raw, heap)
//
//	switch v := v.(type) {
//	case variant.String:
//	    fmt.Println("text:", v.V)
//	case variant.Strings:
//	    fmt.Println("keywords:", v.V)
//	case variant.FileTime:
//	    fmt.Println("modified:", v.V)
//	case variant.Unsupported:
//	    fmt.Println("placeholder:", v.Text)
//	}
//
// Decode never frees anything. The producer of the record keeps ownership
// until Clear is called, exactly once, on every exit path.
//
// Tags the decoder does not know are never fatal: Decode attempts the generic
// scalar conversion and returns an Unsupported placeholder that carries the
// original tag.
//
// # Encoding
//
// Encode is the inverse used by property writers. Text values become wide
// strings whose buffer is owned by the returned Raw and released by Clear.
//
// # Heaps
//
// Arena is the in-process Heap implementation. It hands out stable
// addresses, supports reads and writes at those addresses, and counts live
// allocations so tests can assert that every buffer was released.
package variant
