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
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"modernc.org/sqlite"

	"github.com/kraklabs/scopeq/pkg/scope"
)

// ErrFullTextSyntax reports a malformed CONTAINS or FREETEXT argument.
var ErrFullTextSyntax = errors.New("full-text condition syntax error")

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the SQL functions the dialect translation
// targets. The driver keeps them process-wide, so this runs once.
func registerFunctions() error {
	registerOnce.Do(func() {
		fns := []struct {
			name  string
			nArgs int32
			fn    func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error)
		}{
			{"scope_match", 2, scopeMatch},
			{"directory_match", 2, directoryMatch},
			{"contains_match", -1, containsMatch},
			{"freetext_match", -1, freetextMatch},
		}
		for _, f := range fns {
			if err := sqlite.RegisterDeterministicScalarFunction(f.name, f.nArgs, f.fn); err != nil {
				registerErr = fmt.Errorf("register %s: %w", f.name, err)
				return
			}
		}
	})
	return registerErr
}

func textArg(v driver.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(v)
}

func boolResult(b bool) driver.Value {
	if b {
		return int64(1)
	}
	return int64(0)
}

func scopeMatch(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	return boolResult(scope.Contains(textArg(args[1]), textArg(args[0]))), nil
}

// directoryMatch is true for direct children of the directory only.
func directoryMatch(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	item := textArg(args[0])
	dir := textArg(args[1])
	if !scope.Contains(dir, item) {
		return boolResult(false), nil
	}
	item = strings.TrimRight(strings.ReplaceAll(item, `\`, "/"), "/")
	i := strings.LastIndex(item, "/")
	if i < 0 {
		return boolResult(false), nil
	}
	parent := item[:i]
	if strings.HasSuffix(parent, ":") {
		parent += "/"
	}
	return boolResult(scope.Contains(dir, parent) && scope.Contains(parent, dir)), nil
}

// containsMatch(column, condition[, lcid]).
func containsMatch(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("%w: CONTAINS takes a column, a condition and an optional locale", ErrFullTextSyntax)
	}
	cond, err := parseCondition(textArg(args[1]))
	if err != nil {
		return nil, err
	}
	return boolResult(cond.match(tokenize(textArg(args[0])))), nil
}

// freetextMatch is true when any word of the phrase occurs.
func freetextMatch(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("%w: FREETEXT takes a column, a phrase and an optional locale", ErrFullTextSyntax)
	}
	words := tokenize(textArg(args[0]))
	for _, w := range tokenize(textArg(args[1])) {
		if (term{words: []string{w}}).match(words) {
			return boolResult(true), nil
		}
	}
	return boolResult(false), nil
}

// tokenize splits text into lower-cased words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// condition is a parsed CONTAINS argument.
type condition interface {
	match(words []string) bool
}

type term struct {
	words  []string
	prefix bool
}

func (t term) match(words []string) bool {
	if len(t.words) == 0 {
		return false
	}
	for i := 0; i+len(t.words) <= len(words); i++ {
		ok := true
		for j, w := range t.words {
			last := j == len(t.words)-1
			if words[i+j] == w || (last && t.prefix && strings.HasPrefix(words[i+j], w)) {
				continue
			}
			ok = false
			break
		}
		if ok {
			return true
		}
	}
	return false
}

type andCond struct{ left, right condition }

func (c andCond) match(w []string) bool { return c.left.match(w) && c.right.match(w) }

type orCond struct{ left, right condition }

func (c orCond) match(w []string) bool { return c.left.match(w) || c.right.match(w) }

type notCond struct{ inner condition }

func (c notCond) match(w []string) bool { return !c.inner.match(w) }

// parseCondition parses terms, "phrases", trailing-* prefixes and
// parenthesised groups joined by AND, OR and NOT. Adjacent operands without
// an operator are ANDed.
func parseCondition(s string) (condition, error) {
	p := &condParser{toks: lexCondition(s)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("%w: empty condition", ErrFullTextSyntax)
	}
	c, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrFullTextSyntax, p.toks[p.pos].text)
	}
	return c, nil
}

type condToken struct {
	text   string
	quoted bool
}

func lexCondition(s string) []condToken {
	var toks []condToken
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '(' || c == ')':
			toks = append(toks, condToken{text: string(c)})
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				toks = append(toks, condToken{text: s[i+1:], quoted: true})
				i = len(s)
				continue
			}
			toks = append(toks, condToken{text: s[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\r\n()\"", rune(s[j])) {
				j++
			}
			toks = append(toks, condToken{text: s[i:j]})
			i = j
		}
	}
	return toks
}

type condParser struct {
	toks []condToken
	pos  int
}

func (p *condParser) keyword(kw string) bool {
	if p.pos < len(p.toks) && !p.toks[p.pos].quoted && strings.EqualFold(p.toks[p.pos].text, kw) {
		p.pos++
		return true
	}
	return false
}

func (p *condParser) or() (condition, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orCond{left, right}
	}
	return left, nil
}

func (p *condParser) and() (condition, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.text == ")" || (!t.quoted && strings.EqualFold(t.text, "OR")) {
			break
		}
		p.keyword("AND")
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andCond{left, right}
	}
	return left, nil
}

func (p *condParser) unary() (condition, error) {
	if p.keyword("NOT") {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notCond{inner}, nil
	}
	if p.pos >= len(p.toks) {
		return nil, fmt.Errorf("%w: missing operand", ErrFullTextSyntax)
	}
	t := p.toks[p.pos]
	p.pos++
	if !t.quoted && t.text == "(" {
		c, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos].text != ")" {
			return nil, fmt.Errorf("%w: missing )", ErrFullTextSyntax)
		}
		p.pos++
		return c, nil
	}
	if !t.quoted && t.text == ")" {
		return nil, fmt.Errorf("%w: unexpected )", ErrFullTextSyntax)
	}
	return newTerm(t.text)
}

func newTerm(text string) (condition, error) {
	t := term{}
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "*") {
		t.prefix = true
		text = strings.TrimRight(text, "*")
	}
	t.words = tokenize(text)
	if len(t.words) == 0 {
		return nil, fmt.Errorf("%w: empty term %q", ErrFullTextSyntax, text)
	}
	return t, nil
}
