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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Encode converts v into a variant whose buffers are allocated on heap and
// owned by the returned record. Plain text is always written as LPWSTR
// unless the String arm asks for LPSTR. Release the record with Clear.
func Encode(v Value, heap Heap) (Raw, error) {
	if s, ok := v.(String); ok && s.T != TagLPStr {
		return encodeWide(s.V, heap)
	}
	return encodeScalar(v, heap)
}

// FromString is a shorthand for encoding text as an LPWSTR variant.
func FromString(s string, heap Heap) (Raw, error) {
	return encodeWide(s, heap)
}

// FromGo maps a plain Go value onto a Value arm.
func FromGo(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Empty{}, nil
	case Value:
		return x, nil
	case string:
		return String{T: TagLPWStr, V: x}, nil
	case []string:
		return Strings{V: x}, nil
	case []float64:
		return Float64s{V: x}, nil
	case bool:
		return Bool{V: x}, nil
	case int:
		return Int{T: TagI8, V: int64(x)}, nil
	case int8:
		return Int{T: TagI1, V: int64(x)}, nil
	case int16:
		return Int{T: TagI2, V: int64(x)}, nil
	case int32:
		return Int{T: TagI4, V: int64(x)}, nil
	case int64:
		return Int{T: TagI8, V: x}, nil
	case uint:
		return Uint{T: TagUI8, V: uint64(x)}, nil
	case uint8:
		return Uint{T: TagUI1, V: uint64(x)}, nil
	case uint16:
		return Uint{T: TagUI2, V: uint64(x)}, nil
	case uint32:
		return Uint{T: TagUI4, V: uint64(x)}, nil
	case uint64:
		return Uint{T: TagUI8, V: x}, nil
	case float32:
		return Float{T: TagR4, V: float64(x)}, nil
	case float64:
		return Float{T: TagR8, V: x}, nil
	case time.Time:
		return FileTime{V: x.UTC()}, nil
	}
	return nil, fmt.Errorf("%w: Go type %T", ErrUnsupported, x)
}

// Parse converts display text into a Value of the given tag. It is the
// inverse of String for the arms a property can be written with.
func Parse(t Tag, text string) (Value, error) {
	switch t {
	case TagLPWStr, TagLPStr, TagBSTR:
		return String{T: t, V: text}, nil
	case TagVectorLPWStr:
		return Strings{V: SplitList(text)}, nil
	case TagVectorR8:
		parts := SplitList(text)
		fs := make([]float64, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s element %q: %w", t, p, err)
			}
			fs[i] = f
		}
		return Float64s{V: fs}, nil
	case TagBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t, err)
		}
		return Bool{V: b}, nil
	case TagI1, TagI2, TagI4, TagI8, TagInt:
		n, err := strconv.ParseInt(text, 10, inlineSize(t)*8)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t, err)
		}
		return Int{T: t, V: n}, nil
	case TagUI1, TagUI2, TagUI4, TagUI8, TagUInt:
		n, err := strconv.ParseUint(text, 10, inlineSize(t)*8)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t, err)
		}
		return Uint{T: t, V: n}, nil
	case TagR4, TagR8:
		f, err := strconv.ParseFloat(text, inlineSize(t)*8)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t, err)
		}
		return Float{T: t, V: f}, nil
	case TagFileTime, TagDate:
		ts, err := parseTime(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", t, err)
		}
		if t == TagDate {
			return Date{V: ts}, nil
		}
		return FileTime{V: ts}, nil
	}
	return nil, fmt.Errorf("%w: parse %s", ErrUnsupported, t)
}

func parseTime(text string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, time.DateOnly} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", text)
}

// SplitList splits the display form of a multi-valued arm. Elements are
// trimmed and empty elements dropped.
func SplitList(text string) []string {
	out := []string{}
	for _, p := range strings.Split(text, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
