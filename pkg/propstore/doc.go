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

// Package propstore reads and writes the typed properties of a single file.
//
// A Store wraps exactly one native property store handle obtained from an
// Opener. Values cross the boundary as variant.Raw records: reads are
// decoded with variant.Decode and writes encoded with variant.Encode, and
// every record is cleared before the call returns.
//
// The access Mode is a policy flag passed through to the opener. In
// ModeBestEffort the opener skips property sources that fail and the store
// still opens with whatever it could read; every other mode surfaces the
// first failure as ErrPropertyAccess.
//
// Catalog resolves canonical property names such as "System.Keywords" to
// keys and display names.
package propstore
