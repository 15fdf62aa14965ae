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

package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kraklabs/scopeq/pkg/scope"
)

var (
	// ErrUnknownHost is returned when a statement names a catalog on a
	// machine this index does not answer for.
	ErrUnknownHost = errors.New("index does not serve host")

	// ErrDialect is returned for statements the translation cannot read.
	ErrDialect = errors.New("unsupported index SQL")
)

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokWord
	tokString
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// lexSQL splits a statement into tokens, keeping string literals and
// quoted identifiers whole so nothing inside them gets rewritten.
func lexSQL(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			j := i
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			toks = append(toks, token{tokSpace, s[i:j]})
			i = j
		case c == '\'':
			j := i + 1
			for {
				k := strings.IndexByte(s[j:], '\'')
				if k < 0 {
					return nil, fmt.Errorf("%w: unterminated string literal", ErrDialect)
				}
				j += k + 1
				if j < len(s) && s[j] == '\'' {
					j++
					continue
				}
				break
			}
			toks = append(toks, token{tokString, s[i:j]})
			i = j
		case c == '"' || c == '[':
			closer := byte('"')
			if c == '[' {
				closer = ']'
			}
			k := strings.IndexByte(s[i+1:], closer)
			if k < 0 {
				return nil, fmt.Errorf("%w: unterminated identifier", ErrDialect)
			}
			toks = append(toks, token{tokIdent, s[i+1 : i+1+k]})
			i += k + 2
		case isWordByte(c):
			j := i
			for j < len(s) && (isWordByte(s[j]) || s[j] == '.') {
				j++
			}
			kind := tokWord
			if c >= '0' && c <= '9' {
				kind = tokNumber
			}
			toks = append(toks, token{kind, s[i:j]})
			i = j
		default:
			j := i + 1
			if j < len(s) {
				switch s[i : j+1] {
				case "<=", ">=", "<>", "!=":
					j++
				}
			}
			toks = append(toks, token{tokPunct, s[i:j]})
			i = j
		}
	}
	return toks, nil
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// quoteColumn brackets a column name. Brackets are always identifiers in
// SQLite, unlike double quotes, which fall back to string literals for
// unknown names.
func quoteColumn(name string) string { return "[" + name + "]" }

// translate rewrites a SystemIndex statement into SQL over the items
// table.
func (b *EmbeddedBackend) translate(stmt string) (string, error) {
	toks, err := lexSQL(stmt)
	if err != nil {
		return "", err
	}
	if first := nextSignificant(toks, 0); first < 0 || !strings.EqualFold(toks[first].text, "SELECT") {
		return "", fmt.Errorf("%w: only SELECT statements are supported", ErrDialect)
	}

	var (
		out   strings.Builder
		limit string
	)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokIdent:
			if strings.EqualFold(t.text, scope.Table) {
				out.WriteString("items")
			} else {
				out.WriteString(quoteColumn(t.text))
			}
			continue
		case tokWord:
		default:
			out.WriteString(t.text)
			continue
		}

		word := t.text
		upper := strings.ToUpper(word)
		switch {
		case upper == "TOP" && previousWord(toks, i) == "SELECT":
			j := nextSignificant(toks, i+1)
			if j < 0 || toks[j].kind != tokNumber {
				return "", fmt.Errorf("%w: TOP needs a row count", ErrDialect)
			}
			limit = toks[j].text
			i = j
			if i+1 < len(toks) && toks[i+1].kind == tokSpace {
				i++
			}
		case upper == strings.ToUpper(scope.Table) || strings.HasSuffix(upper, "."+strings.ToUpper(scope.Table)):
			if host, ok := strings.CutSuffix(word, "."+word[len(word)-len(scope.Table):]); ok {
				if !b.servesHost(host) {
					return "", fmt.Errorf("%w: %s", ErrUnknownHost, host)
				}
			}
			out.WriteString("items")
		case upper == "SCOPE" || upper == "DIRECTORY":
			j := nextSignificant(toks, i+1)
			k := nextSignificant(toks, j+1)
			if j < 0 || k < 0 || toks[j].text != "=" || toks[k].kind != tokString {
				return "", fmt.Errorf("%w: %s must be compared to a string", ErrDialect, upper)
			}
			fn := "scope_match"
			if upper == "DIRECTORY" {
				fn = "directory_match"
			}
			fmt.Fprintf(&out, "%s(%s, %s)", fn, quoteColumn(ColumnPath), toks[k].text)
			i = k
		case upper == "CONTAINS" || upper == "FREETEXT":
			next, err := b.translatePredicate(&out, toks, i, strings.ToLower(upper)+"_match")
			if err != nil {
				return "", err
			}
			i = next
		case strings.HasPrefix(upper, "SYSTEM."):
			out.WriteString(quoteColumn(word))
		default:
			out.WriteString(word)
		}
	}

	sql := strings.TrimSpace(out.String())
	if limit != "" {
		sql = strings.TrimSuffix(sql, ";") + " LIMIT " + limit
	}
	return sql, nil
}

// translatePredicate rewrites CONTAINS(col, 'cond'[, lcid]) starting at the
// keyword token and returns the index of the closing parenthesis.
func (b *EmbeddedBackend) translatePredicate(out *strings.Builder, toks []token, at int, fn string) (int, error) {
	open := nextSignificant(toks, at+1)
	if open < 0 || toks[open].text != "(" {
		return 0, fmt.Errorf("%w: %s needs arguments", ErrDialect, toks[at].text)
	}

	var args []string
	var cur strings.Builder
	depth := 0
	end := -1
	for j := open + 1; j < len(toks) && end < 0; j++ {
		t := toks[j]
		switch {
		case t.text == "(":
			depth++
		case t.text == ")" && depth == 0:
			end = j
			continue
		case t.text == ")":
			depth--
		case t.text == "," && depth == 0:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		if t.kind == tokIdent {
			cur.WriteString(quoteColumn(t.text))
			continue
		}
		cur.WriteString(t.text)
	}
	if end < 0 {
		return 0, fmt.Errorf("%w: unclosed %s", ErrDialect, toks[at].text)
	}
	args = append(args, strings.TrimSpace(cur.String()))

	// The single-argument form searches every text property.
	if len(args) > 0 && strings.HasPrefix(args[0], "'") {
		args = append([]string{"*"}, args...)
	}
	if len(args) < 2 || len(args) > 3 {
		return 0, fmt.Errorf("%w: %s takes a column, a condition and an optional locale", ErrDialect, toks[at].text)
	}
	switch col := args[0]; {
	case col == "*":
		args[0] = searchTextColumn
	case strings.HasPrefix(col, "["):
	default:
		args[0] = quoteColumn(col)
	}
	fmt.Fprintf(out, "%s(%s)", fn, strings.Join(args, ", "))
	return end, nil
}

func nextSignificant(toks []token, from int) int {
	if from < 0 {
		return -1
	}
	for j := from; j < len(toks); j++ {
		if toks[j].kind != tokSpace {
			return j
		}
	}
	return -1
}

func previousWord(toks []token, at int) string {
	for j := at - 1; j >= 0; j-- {
		if toks[j].kind != tokSpace {
			return strings.ToUpper(toks[j].text)
		}
	}
	return ""
}

func (b *EmbeddedBackend) servesHost(host string) bool {
	if len(b.config.Hosts) == 0 {
		return true
	}
	for _, h := range b.config.Hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}
