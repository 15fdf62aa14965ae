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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupported is returned by the generic conversion for tags it cannot
// represent. Decode never surfaces it; it turns into an Unsupported value.
var ErrUnsupported = errors.New("variant: unsupported type")

// isScalar reports whether t is one of the fixed-width scalar tags handled by
// the generic native conversion.
func isScalar(t Tag) bool {
	switch t {
	case TagEmpty, TagNull, TagI1, TagI2, TagI4, TagI8, TagUI1, TagUI2, TagUI4, TagUI8,
		TagInt, TagUInt, TagR4, TagR8, TagCY, TagDate, TagBSTR, TagError, TagBool,
		TagDecimal, TagVoid, TagHResult:
		return true
	}
	return false
}

// inlineSize is the payload width of a base type stored inline, or 0.
func inlineSize(t Tag) int {
	switch t {
	case TagI1, TagUI1:
		return 1
	case TagI2, TagUI2, TagBool:
		return 2
	case TagI4, TagUI4, TagInt, TagUInt, TagR4, TagError, TagHResult:
		return 4
	case TagI8, TagUI8, TagR8, TagCY, TagDate, TagFileTime:
		return 8
	case TagDecimal:
		return 16
	}
	return 0
}

// convertScalar is the generic native conversion for scalar tags.
func convertScalar(r *Raw, mem io.ReaderAt) (Value, error) {
	t := r.Tag()
	w := r.Word()
	switch t {
	case TagEmpty, TagVoid:
		return Empty{T: t}, nil
	case TagNull:
		return Null{}, nil
	case TagI1:
		return Int{T: t, V: int64(int8(w))}, nil
	case TagI2:
		return Int{T: t, V: int64(int16(w))}, nil
	case TagI4, TagInt:
		return Int{T: t, V: int64(int32(w))}, nil
	case TagI8:
		return Int{T: t, V: int64(w)}, nil
	case TagUI1:
		return Uint{T: t, V: uint64(uint8(w))}, nil
	case TagUI2:
		return Uint{T: t, V: uint64(uint16(w))}, nil
	case TagUI4, TagUInt:
		return Uint{T: t, V: uint64(uint32(w))}, nil
	case TagUI8:
		return Uint{T: t, V: w}, nil
	case TagR4:
		return Float{T: t, V: float64(math.Float32frombits(uint32(w)))}, nil
	case TagR8:
		return Float{T: t, V: math.Float64frombits(w)}, nil
	case TagCY:
		return Currency{Scaled: int64(w)}, nil
	case TagDate:
		return Date{V: OLEDateToTime(math.Float64frombits(w))}, nil
	case TagBSTR:
		s, err := readBSTR(mem, w)
		if err != nil {
			return nil, err
		}
		return String{T: t, V: s}, nil
	case TagError, TagHResult:
		return ErrorCode{T: t, Code: int32(uint32(w))}, nil
	case TagBool:
		return Bool{V: uint16(w) != 0}, nil
	case TagDecimal:
		return Decimal{
			Scale: r[2],
			Neg:   r[3]&0x80 != 0,
			Hi:    le.Uint32(r[4:8]),
			Lo:    w,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
}

// convertGeneric renders tags without a dedicated decoder: by-reference
// scalars, vectors of fixed-width scalars or strings, CLSIDs and blobs.
func convertGeneric(r *Raw, mem io.ReaderAt) (string, error) {
	t := r.Tag()
	base := t.Base()
	switch {
	case t&TagArray != 0:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, t)

	case t.IsByRef() && !t.IsVector():
		return convertByRef(base, r.Word(), mem)

	case t.IsVector() && !t.IsByRef():
		parts, err := convertVector(base, r.Count(), r.Elems(), mem)
		if err != nil {
			return "", err
		}
		return strings.Join(parts, ListSeparator), nil

	case t == TagCLSID:
		return readCLSID(mem, r.Word())

	case t == TagBlob:
		if r.Count() > maxStringBytes {
			return "", fmt.Errorf("%w: blob of %d bytes", ErrCountTooLarge, r.Count())
		}
		b := make([]byte, r.Count())
		if err := readExact(mem, r.Elems(), b); err != nil {
			return "", err
		}
		return hex.EncodeToString(b), nil

	case isScalar(t):
		v, err := convertScalar(r, mem)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func convertByRef(base Tag, ptr uint64, mem io.ReaderAt) (string, error) {
	switch base {
	case TagLPStr, TagLPWStr, TagBSTR:
		var p [8]byte
		if err := readExact(mem, ptr, p[:]); err != nil {
			return "", err
		}
		return readStringElem(base, le.Uint64(p[:]), mem)
	}
	size := inlineSize(base)
	if size == 0 {
		return "", fmt.Errorf("%w: BYREF|%s", ErrUnsupported, base)
	}
	elem, err := loadInline(base, ptr, size, mem)
	if err != nil {
		return "", err
	}
	return elemString(elem, mem)
}

func convertVector(base Tag, count uint32, elems uint64, mem io.ReaderAt) ([]string, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	parts := make([]string, 0, count)
	if count == 0 {
		return parts, nil
	}
	switch base {
	case TagLPStr, TagLPWStr, TagBSTR:
		ptrs, err := readPointers(mem, elems, count)
		if err != nil {
			return nil, err
		}
		for _, p := range ptrs {
			s, err := readStringElem(base, p, mem)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		return parts, nil
	}
	size := inlineSize(base)
	if size == 0 {
		return nil, fmt.Errorf("%w: VECTOR|%s", ErrUnsupported, base)
	}
	for i := uint32(0); i < count; i++ {
		elem, err := loadInline(base, elems+uint64(i)*uint64(size), size, mem)
		if err != nil {
			return nil, err
		}
		s, err := elemString(elem, mem)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}

// loadInline copies one fixed-width element at addr into a scratch record.
func loadInline(base Tag, addr uint64, size int, mem io.ReaderAt) (Raw, error) {
	var r Raw
	b := make([]byte, size)
	if err := readExact(mem, addr, b); err != nil {
		return r, err
	}
	if base == TagDecimal {
		copy(r[2:16], b[2:16])
	} else {
		copy(r[8:], b)
	}
	r.SetTag(base)
	return r, nil
}

func elemString(r Raw, mem io.ReaderAt) (string, error) {
	if r.Tag() == TagFileTime {
		return FileTime{V: FileTimeToTime(int64(r.Word()))}.String(), nil
	}
	v, err := convertScalar(&r, mem)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func readStringElem(base Tag, p uint64, mem io.ReaderAt) (string, error) {
	if p == 0 {
		return "", nil
	}
	switch base {
	case TagLPStr:
		return readANSI(mem, p)
	case TagBSTR:
		return readBSTR(mem, p)
	}
	return readWide(mem, p)
}

// readCLSID reads a 16-byte GUID in its native mixed-endian layout.
func readCLSID(mem io.ReaderAt, ptr uint64) (string, error) {
	var b [16]byte
	if err := readExact(mem, ptr, b[:]); err != nil {
		return "", err
	}
	return guidFromNative(b).String(), nil
}

func guidFromNative(b [16]byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:])
	return u
}

func guidToNative(u uuid.UUID) [16]byte {
	var b [16]byte
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	copy(b[8:], u[8:])
	return b
}

// encodeScalar is the generic native encoder for every arm except plain text.
func encodeScalar(v Value, heap Heap) (Raw, error) {
	var r Raw
	switch v := v.(type) {
	case Empty:
		r.SetTag(v.T)
	case Null:
		r.SetTag(TagNull)
	case Int:
		t := v.T
		if t == TagEmpty {
			t = TagI8
		}
		r = NewRaw(t, uint64(v.V))
		// Narrow widths keep only their own bytes.
		if size := inlineSize(t); size > 0 && size < 8 {
			clear(r[8+size : 16])
		}
	case Uint:
		t := v.T
		if t == TagEmpty {
			t = TagUI8
		}
		r = NewRaw(t, v.V)
	case Float:
		if v.T == TagR4 {
			r = NewRaw(TagR4, uint64(math.Float32bits(float32(v.V))))
		} else {
			r = NewRaw(TagR8, math.Float64bits(v.V))
		}
	case Bool:
		var w uint64
		if v.V {
			w = 0xffff
		}
		r = NewRaw(TagBool, w)
	case Currency:
		r = NewRaw(TagCY, uint64(v.Scaled))
	case Date:
		r = NewRaw(TagDate, math.Float64bits(TimeToOLEDate(v.V)))
	case Decimal:
		r.SetTag(TagDecimal)
		r[2] = v.Scale
		if v.Neg {
			r[3] = 0x80
		}
		le.PutUint32(r[4:8], v.Hi)
		r.SetWord(v.Lo)
	case ErrorCode:
		t := v.T
		if t == TagEmpty {
			t = TagError
		}
		r = NewRaw(t, uint64(uint32(v.Code)))
	case FileTime:
		r = NewRaw(TagFileTime, uint64(TimeToFileTime(v.V)))
	case Strings:
		return encodeStrings(v.V, heap)
	case Float64s:
		return encodeFloat64s(v.V, heap)
	case String:
		return encodeANSIOrWide(v, heap)
	default:
		return r, fmt.Errorf("%w: cannot encode %T", ErrUnsupported, v)
	}
	return r, nil
}

// encodeANSIOrWide handles String values that explicitly ask for LPSTR; any
// other text tag is written as LPWSTR.
func encodeANSIOrWide(v String, heap Heap) (Raw, error) {
	if v.T != TagLPStr {
		return encodeWide(v.V, heap)
	}
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(v.V))
	if err != nil {
		return Raw{}, fmt.Errorf("encode ANSI string: %w", err)
	}
	addr, err := writeBlock(heap, append(b, 0))
	if err != nil {
		return Raw{}, err
	}
	return NewRaw(TagLPStr, addr), nil
}

func encodeWide(s string, heap Heap) (Raw, error) {
	addr, err := writeWide(heap, s)
	if err != nil {
		return Raw{}, err
	}
	return NewRaw(TagLPWStr, addr), nil
}

func encodeStrings(ss []string, heap Heap) (Raw, error) {
	var r Raw
	r.SetTag(TagVectorLPWStr)
	if len(ss) == 0 {
		return r, nil
	}
	ptrs := make([]uint64, 0, len(ss))
	release := func() {
		for _, p := range ptrs {
			_ = heap.Free(p)
		}
	}
	for _, s := range ss {
		p, err := writeWide(heap, s)
		if err != nil {
			release()
			return Raw{}, err
		}
		ptrs = append(ptrs, p)
	}
	buf := make([]byte, len(ptrs)*8)
	for i, p := range ptrs {
		le.PutUint64(buf[i*8:], p)
	}
	arr, err := writeBlock(heap, buf)
	if err != nil {
		release()
		return Raw{}, err
	}
	r.SetVector(uint32(len(ss)), arr)
	return r, nil
}

func encodeFloat64s(fs []float64, heap Heap) (Raw, error) {
	var r Raw
	r.SetTag(TagVectorR8)
	if len(fs) == 0 {
		return r, nil
	}
	buf := make([]byte, len(fs)*8)
	for i, f := range fs {
		le.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	arr, err := writeBlock(heap, buf)
	if err != nil {
		return Raw{}, err
	}
	r.SetVector(uint32(len(fs)), arr)
	return r, nil
}
