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
	"math"
	"time"
)

// Seconds between 1601-01-01 (FILETIME epoch) and 1970-01-01.
const fileTimeEpochDelta = 11644473600

// 100 ns ticks per second.
const ticksPerSecond = 10_000_000

var oleEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FileTimeToTime converts 100 ns ticks since 1601-01-01 UTC.
func FileTimeToTime(ticks int64) time.Time {
	sec := ticks / ticksPerSecond
	rem := ticks % ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec-fileTimeEpochDelta, rem*100).UTC()
}

// TimeToFileTime is the inverse of FileTimeToTime, truncated to 100 ns.
func TimeToFileTime(t time.Time) int64 {
	return (t.Unix()+fileTimeEpochDelta)*ticksPerSecond + int64(t.Nanosecond())/100
}

// OLEDateToTime converts an OLE automation date: days since 1899-12-30, with
// the fraction giving the time of day. For negative dates the fraction still
// counts forward from midnight.
func OLEDateToTime(d float64) time.Time {
	days := math.Trunc(d)
	frac := math.Abs(d - days)
	ms := math.Round(frac * 86400000)
	return oleEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
}

// TimeToOLEDate is the inverse of OLEDateToTime at millisecond precision.
func TimeToOLEDate(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := math.Round(midnight.Sub(oleEpoch).Hours() / 24)
	frac := float64(t.Sub(midnight).Milliseconds()) / 86400000
	if days < 0 {
		return days - frac
	}
	return days + frac
}
