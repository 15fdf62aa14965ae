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

// Package aqs turns keyword queries into SystemIndex SQL.
//
// The syntax is a subset of Advanced Query Syntax:
//
//	report                  items whose text has a word starting with "report"
//	"annual report"         the exact phrase
//	author:smith            a text property
//	ext:pdf  kind:picture   exact-match properties
//	size:>1mb               numeric comparison, with kb/mb/gb suffixes
//	modified:2024-01-01     a whole day; >, <, >=, <= and a..b ranges work too
//	a OR b, a AND b, a b    boolean operators; juxtaposition means AND
//	-draft, NOT draft       exclusion
//	(a OR b) c              grouping
//
// Generator implements index.QueryGenerator. With a Catalog set, canonical
// property names (System.Title:draft) are resolved and typed through it.
package aqs
