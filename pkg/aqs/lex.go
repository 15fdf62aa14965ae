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

package aqs

import (
	"strings"
)

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokOpen
	tokClose
	tokNot
	tokAnd
	tokOr
)

type token struct {
	kind tokenKind

	// prop is the text before the first colon of a restriction, if any.
	prop  string
	value string

	// quoted marks a "phrase" value.
	quoted bool
}

// lex splits a keyword query into tokens.
func lex(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokOpen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokClose})
			i++
		case c == '-' && i+1 < len(s) && !isSpace(s[i+1]):
			toks = append(toks, token{kind: tokNot})
			i++
		case c == '"':
			v, n := readQuoted(s[i:])
			toks = append(toks, token{kind: tokTerm, value: v, quoted: true})
			i += n
		default:
			j := i
			for j < len(s) && !isSpace(s[j]) && s[j] != '(' && s[j] != ')' && s[j] != '"' {
				j++
			}
			word := s[i:j]
			i = j

			prop, value, hasProp := strings.Cut(word, ":")
			if hasProp && prop != "" {
				t := token{kind: tokTerm, prop: prop, value: value}
				if value == "" && i < len(s) && s[i] == '"' {
					v, n := readQuoted(s[i:])
					t.value, t.quoted = v, true
					i += n
				}
				toks = append(toks, t)
				continue
			}
			switch word {
			case "AND", "&&":
				toks = append(toks, token{kind: tokAnd})
			case "OR", "||":
				toks = append(toks, token{kind: tokOr})
			case "NOT":
				toks = append(toks, token{kind: tokNot})
			default:
				toks = append(toks, token{kind: tokTerm, value: word})
			}
		}
	}
	return toks
}

// readQuoted reads a "..." run starting at s[0] and returns its content and
// the bytes consumed. An unterminated quote runs to the end.
func readQuoted(s string) (string, int) {
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return s[1:], len(s)
	}
	return s[1 : 1+end], end + 2
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
