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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/variant"
)

func where(t *testing.T, g Generator, query string) string {
	t.Helper()
	sql, err := g.GenerateSQL(context.Background(), query)
	require.NoError(t, err)
	_, clause, ok := strings.Cut(sql, " WHERE ")
	require.True(t, ok, sql)
	return clause
}

func TestGenerateSQL_Shape(t *testing.T) {
	sql, err := Generator{}.GenerateSQL(context.Background(), "report")
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT System.ItemPathDisplay, System.ItemName, System.Size, System.DateModified, System.Search.AutoSummary FROM SystemIndex WHERE CONTAINS(*,'"report*"')`,
		sql)

	sql, err = Generator{Columns: []string{"System.ItemUrl"}, Locale: 1033, Exact: true}.GenerateSQL(context.Background(), "report")
	require.NoError(t, err)
	assert.Equal(t, `SELECT System.ItemUrl FROM SystemIndex WHERE CONTAINS(*,'"report"',1033)`, sql)
}

func TestGenerateSQL_Restrictions(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{`"annual report"`, `CONTAINS(*,'"annual report"')`},
		{`rep*`, `CONTAINS(*,'"rep*"')`},
		{`report budget`, `CONTAINS(*,'"report*"') AND CONTAINS(*,'"budget*"')`},
		{`report AND budget`, `CONTAINS(*,'"report*"') AND CONTAINS(*,'"budget*"')`},
		{`report OR budget`, `(CONTAINS(*,'"report*"') OR CONTAINS(*,'"budget*"'))`},
		{`report -draft`, `CONTAINS(*,'"report*"') AND NOT (CONTAINS(*,'"draft*"'))`},
		{`NOT draft`, `NOT (CONTAINS(*,'"draft*"'))`},
		{`(a OR b) c`, `(CONTAINS(*,'"a*"') OR CONTAINS(*,'"b*"')) AND CONTAINS(*,'"c*"')`},
		{`author:smith`, `CONTAINS(System.Author,'"smith*"')`},
		{`title:"q3 plan"`, `CONTAINS(System.Title,'"q3 plan"')`},
		{`ext:PDF`, `System.FileExtension = '.pdf'`},
		{`ext:.md`, `System.FileExtension = '.md'`},
		{`size:>1mb`, `System.Size > 1048576`},
		{`size:<=500`, `System.Size <= 500`},
		{`size:1k..2k`, `(System.Size >= 1024 AND System.Size <= 2048)`},
		{`modified:2024-01-01`, `(System.DateModified >= '2024-01-01' AND System.DateModified < '2024-01-02')`},
		{`modified:>2024-01-31`, `System.DateModified >= '2024-02-01'`},
		{`created:<2024-01-01`, `System.DateCreated < '2024-01-01'`},
		{`taken:2024-01-01..2024-01-31`, `(System.Photo.DateTaken >= '2024-01-01' AND System.Photo.DateTaken < '2024-02-01')`},
		{`System.Company:contoso`, `CONTAINS(System.Company,'"contoso*"')`},
		{`http:example`, `CONTAINS(*,'"http:example*"')`},
		{`o'brien`, `CONTAINS(*,'"o''brien*"')`},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, where(t, Generator{}, tt.query))
		})
	}
}

func TestGenerateSQL_Errors(t *testing.T) {
	for _, query := range []string{``, `   `, `(report`, `report)`, `report AND`, `OR report`, `size:big`, `modified:yesterday`, `title:`, `"*"`} {
		t.Run(query, func(t *testing.T) {
			_, err := Generator{}.GenerateSQL(context.Background(), query)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

type fakeCatalog map[string]propstore.Description

func (c fakeCatalog) Describe(context.Context, propstore.Key) (propstore.Description, error) {
	return propstore.Description{}, propstore.ErrUnknownProperty
}

func (c fakeCatalog) DescribeByName(_ context.Context, name string) (propstore.Description, error) {
	if d, ok := c[strings.ToLower(name)]; ok {
		return d, nil
	}
	return propstore.Description{}, propstore.ErrUnknownProperty
}

func TestGenerateSQL_Catalog(t *testing.T) {
	g := Generator{Catalog: fakeCatalog{
		"system.rating":   {CanonicalName: "System.Rating", Type: variant.TagUI4},
		"system.datedue":  {CanonicalName: "System.DueDate", Type: variant.TagFileTime},
		"contoso.project": {CanonicalName: "Contoso.Project", Type: variant.TagLPWStr},
	}}

	assert.Equal(t, `System.Rating >= 50`, where(t, g, `system.rating:>=50`))
	assert.Equal(t, `System.DueDate < '2025-01-01'`, where(t, g, `System.DateDue:<2025-01-01`))
	assert.Equal(t, `CONTAINS(Contoso.Project,'"apollo*"')`, where(t, g, `Contoso.Project:apollo`))

	_, err := g.GenerateSQL(context.Background(), `System.Bogus:1`)
	assert.ErrorIs(t, err, ErrSyntax)
}

type brokenCatalog struct{ fakeCatalog }

var errCatalogDown = errors.New("catalog unavailable")

func (brokenCatalog) DescribeByName(context.Context, string) (propstore.Description, error) {
	return propstore.Description{}, errCatalogDown
}

func TestGenerateSQL_CatalogFailure(t *testing.T) {
	_, err := Generator{Catalog: brokenCatalog{}}.GenerateSQL(context.Background(), `System.Title:x`)
	assert.ErrorIs(t, err, errCatalogDown)
}
