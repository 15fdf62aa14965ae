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
	"strings"
)

// GPSFlags are the native get-property-store flags.
type GPSFlags uint32

const (
	GPSDefault               GPSFlags = 0x00
	GPSHandlerPropertiesOnly GPSFlags = 0x01
	GPSReadWrite             GPSFlags = 0x02
	GPSTemporary             GPSFlags = 0x04
	GPSFastPropertiesOnly    GPSFlags = 0x08
	GPSOpenSlowItem          GPSFlags = 0x10
	GPSDelayCreation         GPSFlags = 0x20
	GPSBestEffort            GPSFlags = 0x40
	GPSNoOplock              GPSFlags = 0x80
)

// Has reports whether every bit of want is set.
func (f GPSFlags) Has(want GPSFlags) bool { return f&want == want }

// Mode selects how a Store is opened.
type Mode int

const (
	// ModeBestEffort opens read-only and tolerates failing property sources.
	ModeBestEffort Mode = iota
	// ModeStrict opens read-only and fails on any source error.
	ModeStrict
	// ModeReadWrite allows Set and Commit.
	ModeReadWrite
	// ModeTemporary allows Set but keeps writes in memory for the life of
	// the store; Commit persists nothing.
	ModeTemporary
)

var modeNames = [...]string{"best-effort", "strict", "read-write", "temporary"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the names printed by String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want one of %s)", s, strings.Join(modeNames[:], ", "))
}

// Flags returns the native flags the mode opens with.
func (m Mode) Flags() GPSFlags {
	switch m {
	case ModeBestEffort:
		return GPSBestEffort
	case ModeReadWrite:
		return GPSReadWrite
	case ModeTemporary:
		return GPSReadWrite | GPSTemporary
	}
	return GPSDefault
}

// Writable reports whether Set is allowed.
func (m Mode) Writable() bool { return m == ModeReadWrite || m == ModeTemporary }
