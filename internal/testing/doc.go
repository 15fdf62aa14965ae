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

// Package testing provides test helpers for scopeq packages that need a
// populated search index.
//
// SetupTestIndex opens a fresh SQLite-backed index in a temporary
// directory. InsertTestItem and InsertTestDocument seed it:
//
//	func TestMyCommand(t *testing.T) {
//	    backend := testing.SetupTestIndex(t)
//	    testing.InsertTestDocument(t, backend, `C:\Docs\a.txt`, "quarterly report", "finance")
//
//	    rows := testing.QueryItems(t, backend)
//	    require.Len(t, rows.Rows, 1)
//	}
//
// Helpers fail the test through t.Fatalf, so callers never check errors.
// The package name shadows the standard library's; import it under an
// alias such as scopetest where both are needed.
package testing
