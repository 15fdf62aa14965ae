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
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/scopeq/pkg/index"
	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/scope"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// ErrSyntax is returned for queries the generator cannot read.
var ErrSyntax = errors.New("keyword query syntax error")

// DefaultColumns are selected when Generator.Columns is empty.
var DefaultColumns = []string{
	"System.ItemPathDisplay",
	"System.ItemName",
	"System.Size",
	"System.DateModified",
	"System.Search.AutoSummary",
}

type valueKind int

const (
	kindText valueKind = iota
	kindExact
	kindNumber
	kindDate
)

type property struct {
	name string
	kind valueKind
}

var aliases = map[string]property{
	"author":       {"System.Author", kindText},
	"by":           {"System.Author", kindText},
	"title":        {"System.Title", kindText},
	"subject":      {"System.Subject", kindText},
	"comment":      {"System.Comment", kindText},
	"tag":          {"System.Keywords", kindText},
	"tags":         {"System.Keywords", kindText},
	"keywords":     {"System.Keywords", kindText},
	"name":         {"System.ItemName", kindText},
	"filename":     {"System.ItemName", kindText},
	"content":      {"System.Search.Contents", kindText},
	"contents":     {"System.Search.Contents", kindText},
	"company":      {"System.Company", kindText},
	"camera":       {"System.Photo.CameraModel", kindText},
	"kind":         {"System.Kind", kindText},
	"ext":          {"System.FileExtension", kindExact},
	"extension":    {"System.FileExtension", kindExact},
	"fileext":      {"System.FileExtension", kindExact},
	"type":         {"System.ItemType", kindExact},
	"size":         {"System.Size", kindNumber},
	"rating":       {"System.Rating", kindNumber},
	"pages":        {"System.Document.PageCount", kindNumber},
	"modified":     {"System.DateModified", kindDate},
	"datemodified": {"System.DateModified", kindDate},
	"date":         {"System.DateModified", kindDate},
	"created":      {"System.DateCreated", kindDate},
	"datecreated":  {"System.DateCreated", kindDate},
	"taken":        {"System.Photo.DateTaken", kindDate},
	"datetaken":    {"System.Photo.DateTaken", kindDate},
}

// Generator turns keyword queries into SQL against the unscoped SystemIndex
// table. The zero value is ready to use.
type Generator struct {
	// Columns to select; DefaultColumns when empty.
	Columns []string

	// Locale is passed to CONTAINS when non-zero, e.g. 1033.
	Locale int

	// Exact turns off the implicit prefix match on bare words.
	Exact bool

	// Catalog resolves canonical property names. Optional.
	Catalog propstore.Catalog
}

var _ index.QueryGenerator = Generator{}

// GenerateSQL implements index.QueryGenerator.
func (g Generator) GenerateSQL(ctx context.Context, query string) (string, error) {
	toks := lex(query)
	if len(toks) == 0 {
		return "", fmt.Errorf("%w: empty query", ErrSyntax)
	}

	p := &parser{ctx: ctx, g: g, toks: toks}
	where, err := p.or()
	if err != nil {
		return "", err
	}
	if p.pos < len(p.toks) {
		return "", fmt.Errorf("%w: unexpected %s", ErrSyntax, p.toks[p.pos].describe())
	}

	cols := g.Columns
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + scope.Table + " WHERE " + where, nil
}

func (t token) describe() string {
	switch t.kind {
	case tokOpen:
		return "("
	case tokClose:
		return ")"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	}
	if t.prop != "" {
		return t.prop + ":" + t.value
	}
	return strconv.Quote(t.value)
}

type parser struct {
	ctx  context.Context
	g    Generator
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) or() (string, error) {
	left, err := p.and()
	if err != nil {
		return "", err
	}
	parts := []string{left}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
		right, err := p.and()
		if err != nil {
			return "", err
		}
		parts = append(parts, right)
	}
	if len(parts) == 1 {
		return left, nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func (p *parser) and() (string, error) {
	left, err := p.unary()
	if err != nil {
		return "", err
	}
	parts := []string{left}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokOr || t.kind == tokClose {
			break
		}
		if t.kind == tokAnd {
			p.pos++
		}
		right, err := p.unary()
		if err != nil {
			return "", err
		}
		parts = append(parts, right)
	}
	return strings.Join(parts, " AND "), nil
}

func (p *parser) unary() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("%w: missing term", ErrSyntax)
	}
	p.pos++

	switch t.kind {
	case tokNot:
		inner, err := p.unary()
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case tokOpen:
		inner, err := p.or()
		if err != nil {
			return "", err
		}
		if c, ok := p.peek(); !ok || c.kind != tokClose {
			return "", fmt.Errorf("%w: missing )", ErrSyntax)
		}
		p.pos++
		return inner, nil
	case tokTerm:
		return p.restriction(t)
	}
	return "", fmt.Errorf("%w: unexpected %s", ErrSyntax, t.describe())
}

func (p *parser) restriction(t token) (string, error) {
	if t.prop == "" {
		return p.contains("*", t.value, t.quoted)
	}

	prop, ok, err := p.resolve(t.prop)
	if err != nil {
		return "", err
	}
	if !ok {
		// Not a property: "http:x" and the like are plain text.
		return p.contains("*", t.prop+":"+t.value, t.quoted)
	}
	if t.value == "" {
		return "", fmt.Errorf("%w: %s: needs a value", ErrSyntax, t.prop)
	}

	switch prop.kind {
	case kindExact:
		return exact(prop.name, t.value), nil
	case kindNumber:
		if t.quoted {
			break
		}
		return compare(prop.name, t.value, parseNumber)
	case kindDate:
		if t.quoted {
			break
		}
		return compareDates(prop.name, t.value)
	}
	return p.contains(prop.name, t.value, t.quoted)
}

// resolve maps a restriction prefix onto a property.
func (p *parser) resolve(name string) (property, bool, error) {
	if prop, ok := aliases[strings.ToLower(name)]; ok {
		return prop, true, nil
	}
	if !strings.Contains(name, ".") {
		return property{}, false, nil
	}
	if p.g.Catalog == nil {
		return property{name: name, kind: kindText}, true, nil
	}

	d, err := p.g.Catalog.DescribeByName(p.ctx, name)
	if errors.Is(err, propstore.ErrUnknownProperty) {
		return property{}, false, fmt.Errorf("%w: unknown property %s", ErrSyntax, name)
	}
	if err != nil {
		return property{}, false, err
	}
	return property{name: d.CanonicalName, kind: kindOf(d.Type)}, true, nil
}

func kindOf(t variant.Tag) valueKind {
	switch t {
	case variant.TagI1, variant.TagI2, variant.TagI4, variant.TagI8, variant.TagInt,
		variant.TagUI1, variant.TagUI2, variant.TagUI4, variant.TagUI8, variant.TagUInt,
		variant.TagR4, variant.TagR8:
		return kindNumber
	case variant.TagFileTime, variant.TagDate:
		return kindDate
	}
	return kindText
}

// contains builds a CONTAINS predicate. Bare words match as prefixes
// unless the generator is exact.
func (p *parser) contains(col, value string, quoted bool) (string, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
	if value == "" || strings.Trim(value, "*") == "" {
		return "", fmt.Errorf("%w: empty term", ErrSyntax)
	}
	if !quoted && !p.g.Exact && !strings.HasSuffix(value, "*") {
		value += "*"
	}
	pred := "CONTAINS(" + col + ",'\"" + quote(value) + "\"'"
	if p.g.Locale != 0 {
		pred += "," + strconv.Itoa(p.g.Locale)
	}
	return pred + ")", nil
}

func exact(col, value string) string {
	if col == "System.FileExtension" && !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	return col + " = '" + quote(strings.ToLower(value)) + "'"
}

func quote(s string) string { return strings.ReplaceAll(s, "'", "''") }

// splitOp separates a leading comparison operator from its operand.
func splitOp(value string) (string, string) {
	for _, op := range []string{">=", "<=", "<>", ">", "<", "="} {
		if rest, ok := strings.CutPrefix(value, op); ok {
			return op, rest
		}
	}
	return "=", value
}

func compare(col, value string, parse func(string) (string, error)) (string, error) {
	if lo, hi, ok := strings.Cut(value, ".."); ok {
		l, err := parse(lo)
		if err != nil {
			return "", err
		}
		h, err := parse(hi)
		if err != nil {
			return "", err
		}
		return "(" + col + " >= " + l + " AND " + col + " <= " + h + ")", nil
	}
	op, operand := splitOp(value)
	n, err := parse(operand)
	if err != nil {
		return "", err
	}
	return col + " " + op + " " + n, nil
}

var sizeSuffixes = []struct {
	suffix string
	mult   float64
}{
	{"kb", 1 << 10},
	{"mb", 1 << 20},
	{"gb", 1 << 30},
	{"k", 1 << 10},
	{"m", 1 << 20},
	{"g", 1 << 30},
}

// parseNumber accepts integers, decimals and kb/mb/gb sizes.
func parseNumber(s string) (string, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	mult := 1.0
	for _, sf := range sizeSuffixes {
		if rest, ok := strings.CutSuffix(text, sf.suffix); ok {
			text, mult = rest, sf.mult
			break
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrSyntax, s)
	}
	if mult == 1 && !strings.ContainsAny(text, ".eE") {
		return text, nil
	}
	return strconv.FormatInt(int64(f*mult), 10), nil
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date (want YYYY-MM-DD)", ErrSyntax, s)
	}
	return t, nil
}

func day(t time.Time) string { return "'" + t.Format(time.DateOnly) + "'" }

// compareDates compares at day granularity: a date names the whole day.
func compareDates(col, value string) (string, error) {
	if lo, hi, ok := strings.Cut(value, ".."); ok {
		l, err := parseDay(lo)
		if err != nil {
			return "", err
		}
		h, err := parseDay(hi)
		if err != nil {
			return "", err
		}
		return "(" + col + " >= " + day(l) + " AND " + col + " < " + day(h.AddDate(0, 0, 1)) + ")", nil
	}

	op, operand := splitOp(value)
	d, err := parseDay(operand)
	if err != nil {
		return "", err
	}
	next := d.AddDate(0, 0, 1)
	switch op {
	case ">":
		return col + " >= " + day(next), nil
	case ">=":
		return col + " >= " + day(d), nil
	case "<":
		return col + " < " + day(d), nil
	case "<=":
		return col + " < " + day(next), nil
	case "<>":
		return "(" + col + " < " + day(d) + " OR " + col + " >= " + day(next) + ")", nil
	}
	return "(" + col + " >= " + day(d) + " AND " + col + " < " + day(next) + ")", nil
}
