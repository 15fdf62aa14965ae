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
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Value is a decoded variant. The set of implementations is closed; switch on
// the concrete type to get at the payload.
type Value interface {
	// Tag returns the wire tag the value was decoded from (or will encode to).
	Tag() Tag

	// String renders the value as display text. Multi-valued arms join their
	// elements with "; ".
	String() string

	isValue()
}

// ListSeparator joins the elements of multi-valued arms in String.
const ListSeparator = "; "

// Empty is VT_EMPTY or VT_VOID: no value.
type Empty struct{ T Tag }

// Null is VT_NULL: an explicit SQL-style null.
type Null struct{}

// Int is a signed integer of any width (I1, I2, I4, I8, INT).
type Int struct {
	T Tag
	V int64
}

// Uint is an unsigned integer of any width (UI1, UI2, UI4, UI8, UINT).
type Uint struct {
	T Tag
	V uint64
}

// Float is R4 or R8.
type Float struct {
	T Tag
	V float64
}

// Bool is VT_BOOL.
type Bool struct{ V bool }

// Currency is VT_CY: a fixed-point amount scaled by 10,000.
type Currency struct{ Scaled int64 }

// Date is VT_DATE, an OLE automation date converted to UTC.
type Date struct{ V time.Time }

// Decimal is VT_DECIMAL: a 96-bit magnitude with a sign and a power-of-ten scale.
type Decimal struct {
	Scale uint8
	Neg   bool
	Hi    uint32
	Lo    uint64
}

// ErrorCode is VT_ERROR or VT_HRESULT.
type ErrorCode struct {
	T    Tag
	Code int32
}

// String is a text value (LPSTR, LPWSTR or BSTR).
type String struct {
	T Tag
	V string
}

// Strings is VT_VECTOR|VT_LPWSTR.
type Strings struct{ V []string }

// Float64s is VT_VECTOR|VT_R8.
type Float64s struct{ V []float64 }

// FileTime is VT_FILETIME converted to UTC.
type FileTime struct{ V time.Time }

// Unsupported is the placeholder for tags without a dedicated decoder.
// Decoded reports whether the generic conversion still produced a value; Text
// is the display form in either case.
type Unsupported struct {
	T       Tag
	Decoded bool
	Text    string
}

func (v Empty) Tag() Tag       { return v.T }
func (Null) Tag() Tag          { return TagNull }
func (v Int) Tag() Tag         { return v.T }
func (v Uint) Tag() Tag        { return v.T }
func (v Float) Tag() Tag       { return v.T }
func (Bool) Tag() Tag          { return TagBool }
func (Currency) Tag() Tag      { return TagCY }
func (Date) Tag() Tag          { return TagDate }
func (Decimal) Tag() Tag       { return TagDecimal }
func (v ErrorCode) Tag() Tag   { return v.T }
func (v String) Tag() Tag      { return v.T }
func (Strings) Tag() Tag       { return TagVectorLPWStr }
func (Float64s) Tag() Tag      { return TagVectorR8 }
func (FileTime) Tag() Tag      { return TagFileTime }
func (v Unsupported) Tag() Tag { return v.T }

func (Empty) isValue()       {}
func (Null) isValue()        {}
func (Int) isValue()         {}
func (Uint) isValue()        {}
func (Float) isValue()       {}
func (Bool) isValue()        {}
func (Currency) isValue()    {}
func (Date) isValue()        {}
func (Decimal) isValue()     {}
func (ErrorCode) isValue()   {}
func (String) isValue()      {}
func (Strings) isValue()     {}
func (Float64s) isValue()    {}
func (FileTime) isValue()    {}
func (Unsupported) isValue() {}

// TimeLayout is the display layout for Date and FileTime values.
const TimeLayout = "2006-01-02 15:04:05"

func (Empty) String() string  { return "" }
func (Null) String() string   { return "" }
func (v Int) String() string  { return strconv.FormatInt(v.V, 10) }
func (v Uint) String() string { return strconv.FormatUint(v.V, 10) }

func (v Float) String() string {
	bits := 64
	if v.T == TagR4 {
		bits = 32
	}
	return strconv.FormatFloat(v.V, 'g', -1, bits)
}

func (v Bool) String() string { return strconv.FormatBool(v.V) }

func (v Currency) String() string {
	return big.NewRat(v.Scaled, 10000).FloatString(4)
}

func (v Date) String() string { return v.V.Format(TimeLayout) }

func (v Decimal) String() string {
	mag := new(big.Int).SetUint64(uint64(v.Hi))
	mag.Lsh(mag, 64)
	mag.Or(mag, new(big.Int).SetUint64(v.Lo))
	if v.Neg {
		mag.Neg(mag)
	}
	if v.Scale == 0 {
		return mag.String()
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(v.Scale)), nil)
	return new(big.Rat).SetFrac(mag, den).FloatString(int(v.Scale))
}

func (v ErrorCode) String() string { return fmt.Sprintf("0x%08X", uint32(v.Code)) }
func (v String) String() string    { return v.V }
func (v Strings) String() string   { return strings.Join(v.V, ListSeparator) }

func (v Float64s) String() string {
	parts := make([]string, len(v.V))
	for i, f := range v.V {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ListSeparator)
}

func (v FileTime) String() string    { return v.V.Format(TimeLayout) }
func (v Unsupported) String() string { return v.Text }

// Interface returns the payload as a plain Go value, for JSON output and
// callers that do not want to switch on the arms.
func Interface(v Value) any {
	switch v := v.(type) {
	case Empty, Null, nil:
		return nil
	case Int:
		return v.V
	case Uint:
		return v.V
	case Float:
		return v.V
	case Bool:
		return v.V
	case Date:
		return v.V
	case FileTime:
		return v.V
	case String:
		return v.V
	case Strings:
		return v.V
	case Float64s:
		return v.V
	default:
		return v.String()
	}
}
