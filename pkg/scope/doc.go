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

// Package scope restricts index queries to a file-system subtree.
//
// A Path is a canonical root in the form the index expects: a URL-style path
// with forward slashes, plus a host prefix when the root is a UNC share.
// Rewrite splices the scope predicate into caller SQL. It recognises exactly
// two shapes of the target-table reference and refuses anything else:
//
//	... FROM SystemIndex WHERE <filter>   ->  ... FROM <host.>SystemIndex WHERE SCOPE='file:<url>' AND <filter>
//	... FROM SystemIndex                  ->  ... FROM <host.>SystemIndex WHERE SCOPE='file:<url>'
//
// The rewrite is deliberately a narrow text substitution and not a SQL
// parser.
package scope
