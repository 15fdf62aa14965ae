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

import "fmt"

// Tag is the type discriminant stored in the first two bytes of a Raw record.
type Tag uint16

// Base types.
const (
	TagEmpty    Tag = 0
	TagNull     Tag = 1
	TagI2       Tag = 2
	TagI4       Tag = 3
	TagR4       Tag = 4
	TagR8       Tag = 5
	TagCY       Tag = 6
	TagDate     Tag = 7
	TagBSTR     Tag = 8
	TagError    Tag = 10
	TagBool     Tag = 11
	TagDecimal  Tag = 14
	TagI1       Tag = 16
	TagUI1      Tag = 17
	TagUI2      Tag = 18
	TagUI4      Tag = 19
	TagI8       Tag = 20
	TagUI8      Tag = 21
	TagInt      Tag = 22
	TagUInt     Tag = 23
	TagVoid     Tag = 24
	TagHResult  Tag = 25
	TagLPStr    Tag = 30
	TagLPWStr   Tag = 31
	TagFileTime Tag = 64
	TagBlob     Tag = 65
	TagCLSID    Tag = 72
)

// Modifier bits combined with a base type.
const (
	TagVector Tag = 0x1000
	TagArray  Tag = 0x2000
	TagByRef  Tag = 0x4000

	tagTypeMask Tag = 0x0fff
)

// Composite tags with dedicated decoders.
const (
	TagVectorLPWStr = TagVector | TagLPWStr
	TagVectorR8     = TagVector | TagR8
)

// Base returns the tag with the modifier bits removed.
func (t Tag) Base() Tag { return t & tagTypeMask }

// IsVector reports whether the tag carries the counted-vector modifier.
func (t Tag) IsVector() bool { return t&TagVector != 0 }

// IsByRef reports whether the payload is a pointer to the base type.
func (t Tag) IsByRef() bool { return t&TagByRef != 0 }

var tagNames = map[Tag]string{
	TagEmpty:    "EMPTY",
	TagNull:     "NULL",
	TagI2:       "I2",
	TagI4:       "I4",
	TagR4:       "R4",
	TagR8:       "R8",
	TagCY:       "CY",
	TagDate:     "DATE",
	TagBSTR:     "BSTR",
	TagError:    "ERROR",
	TagBool:     "BOOL",
	TagDecimal:  "DECIMAL",
	TagI1:       "I1",
	TagUI1:      "UI1",
	TagUI2:      "UI2",
	TagUI4:      "UI4",
	TagI8:       "I8",
	TagUI8:      "UI8",
	TagInt:      "INT",
	TagUInt:     "UINT",
	TagVoid:     "VOID",
	TagHResult:  "HRESULT",
	TagLPStr:    "LPSTR",
	TagLPWStr:   "LPWSTR",
	TagFileTime: "FILETIME",
	TagBlob:     "BLOB",
	TagCLSID:    "CLSID",
}

// String renders the tag as VT names joined by '|', e.g. "VECTOR|LPWSTR".
// Unknown base types render as hex.
func (t Tag) String() string {
	name, ok := tagNames[t.Base()]
	if !ok {
		name = fmt.Sprintf("0x%04x", uint16(t.Base()))
	}
	if t&TagVector != 0 {
		name = "VECTOR|" + name
	}
	if t&TagArray != 0 {
		name = "ARRAY|" + name
	}
	if t&TagByRef != 0 {
		name = "BYREF|" + name
	}
	return name
}

// Hex renders the raw tag value as 0xNNNN.
func (t Tag) Hex() string { return fmt.Sprintf("0x%04x", uint16(t)) }
