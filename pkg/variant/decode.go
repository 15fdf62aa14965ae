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

import (
	"errors"
	"io"
	"math"
)

// Decode converts one variant into a Value. mem resolves the pointers held by
// string and vector payloads; it may be nil when raw is known to be inline.
//
// Tags without a dedicated decoder never fail: they come back as an
// Unsupported placeholder. Errors are only returned for malformed payloads
// of the dedicated kinds (a dangling pointer, an unterminated string).
//
// Decode does not release anything; pair it with Clear.
func Decode(raw Raw, mem io.ReaderAt) (Value, error) {
	t := raw.Tag()
	switch t {
	case TagLPStr:
		s, err := nullableString(readANSI(mem, raw.Word()))
		if err != nil {
			return nil, err
		}
		return String{T: t, V: s}, nil

	case TagLPWStr:
		s, err := nullableString(readWide(mem, raw.Word()))
		if err != nil {
			return nil, err
		}
		return String{T: t, V: s}, nil

	case TagVectorLPWStr:
		return decodeStrings(&raw, mem)

	case TagVectorR8:
		return decodeFloat64s(&raw, mem)

	case TagFileTime:
		return FileTime{V: FileTimeToTime(int64(raw.Word()))}, nil
	}

	if isScalar(t) {
		return convertScalar(&raw, mem)
	}
	return decodeOther(&raw, mem), nil
}

// nullableString maps a null string pointer to the empty string.
func nullableString(s string, err error) (string, error) {
	if errors.Is(err, ErrNullPointer) {
		return "", nil
	}
	return s, err
}

func decodeStrings(r *Raw, mem io.ReaderAt) (Value, error) {
	n := r.Count()
	if err := checkCount(n); err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	if n == 0 {
		return Strings{V: out}, nil
	}
	ptrs, err := readPointers(mem, r.Elems(), n)
	if err != nil {
		return nil, err
	}
	for _, p := range ptrs {
		s, err := nullableString(readWide(mem, p))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return Strings{V: out}, nil
}

func decodeFloat64s(r *Raw, mem io.ReaderAt) (Value, error) {
	n := r.Count()
	if err := checkCount(n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if n == 0 {
		return Float64s{V: out}, nil
	}
	buf := make([]byte, int(n)*8)
	if err := readExact(mem, r.Elems(), buf); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = math.Float64frombits(le.Uint64(buf[i*8:]))
	}
	return Float64s{V: out}, nil
}

// decodeOther renders a tag with no dedicated decoder through the generic
// conversion, falling back to a bare placeholder when that fails too.
func decodeOther(r *Raw, mem io.ReaderAt) Value {
	t := r.Tag()
	text, err := convertGeneric(r, mem)
	if err != nil {
		return Unsupported{T: t, Text: "(Unsupported type " + t.Hex() + ")"}
	}
	return Unsupported{T: t, Decoded: true, Text: "(Supported type " + t.Hex() + "): " + text}
}
