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

package scope

import (
	"errors"
	"regexp"
)

// Table is the unqualified name of the index table.
const Table = "SystemIndex"

// ErrQuerySyntaxMismatch is returned when SQL has no rewritable reference to
// the index table.
var ErrQuerySyntaxMismatch = errors.New("SQL statement didn't match expected syntax")

var (
	clauseForm = regexp.MustCompile(`(?i)\sFROM\s+"?SystemIndex"?\s+WHERE\s+`)
	bareForm   = regexp.MustCompile(`(?i)\sFROM\s+"?SystemIndex"?\s*$`)
)

// Rewrite scopes sql to p. The clause form is tried first, then the bare
// form; only the first occurrence of the winning form is replaced.
func Rewrite(sql string, p Path) (string, error) {
	if loc := clauseForm.FindStringIndex(sql); loc != nil {
		return splice(sql, loc, " FROM "+p.Table()+" WHERE "+p.ScopeClause()+" AND "), nil
	}
	if loc := bareForm.FindStringIndex(sql); loc != nil {
		return splice(sql, loc, " FROM "+p.Table()+" WHERE "+p.ScopeClause()), nil
	}
	return "", ErrQuerySyntaxMismatch
}

func splice(s string, loc []int, repl string) string {
	return s[:loc[0]] + repl + s[loc[1]:]
}
