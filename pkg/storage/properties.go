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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kraklabs/scopeq/pkg/propstore"
	"github.com/kraklabs/scopeq/pkg/variant"
)

// Canonical names the index maintains itself.
const (
	ColumnPath      = "System.ItemPathDisplay"
	ColumnURL       = "System.ItemUrl"
	ColumnName      = "System.ItemName"
	ColumnExtension = "System.FileExtension"
	ColumnSize      = "System.Size"
	ColumnModified  = "System.DateModified"
	ColumnCreated   = "System.DateCreated"
	ColumnKeywords  = "System.Keywords"

	searchTextColumn = "search_text"
)

type propertyDef struct {
	Name    string
	Key     propstore.Key
	Display string
	Type    variant.Tag
}

const (
	fmtidSummary  = "{F29F85E0-4FF9-1068-AB91-08002B27B3D9}"
	fmtidStorage  = "{B725F130-47EF-101A-A5F1-02608C9EEBAC}"
	fmtidPhoto    = "{14B81DA1-0135-4D31-96D9-6CBFC9671A99}"
	fmtidDocument = "{D5CDD502-2E9C-101B-9397-08002B2CF9AE}"
)

var builtinProperties = []propertyDef{
	{ColumnPath, propstore.MustKey("{E3E0584C-B788-4A5A-BB20-7F5A44C9ACDD}", 7), "Path", variant.TagLPWStr},
	{ColumnURL, propstore.MustKey("{49691C90-7E17-101A-A91C-08002B2ECDA9}", 9), "URL", variant.TagLPWStr},
	{ColumnName, propstore.MustKey("{6B8DA074-3B5C-43BC-886F-0A2CDCE00B6F}", 100), "Name", variant.TagLPWStr},
	{"System.ItemType", propstore.MustKey("{28636AA6-953D-11D2-B5D6-00C04FD918D0}", 11), "Item type", variant.TagLPWStr},
	{ColumnExtension, propstore.MustKey("{E4F10A3C-49E6-405D-8288-A23BD4EEAA6C}", 100), "File extension", variant.TagLPWStr},
	{"System.Kind", propstore.MustKey("{1E3EE840-BC2B-476C-8237-2ACD1A839B22}", 3), "Kind", variant.TagVectorLPWStr},
	{ColumnSize, propstore.MustKey(fmtidStorage, 12), "Size", variant.TagUI8},
	{ColumnModified, propstore.MustKey(fmtidStorage, 14), "Date modified", variant.TagFileTime},
	{ColumnCreated, propstore.MustKey(fmtidStorage, 15), "Date created", variant.TagFileTime},
	{"System.Search.Contents", propstore.MustKey(fmtidStorage, 19), "Contents", variant.TagLPWStr},
	{"System.Title", propstore.MustKey(fmtidSummary, 2), "Title", variant.TagLPWStr},
	{"System.Subject", propstore.MustKey(fmtidSummary, 3), "Subject", variant.TagLPWStr},
	{"System.Author", propstore.MustKey(fmtidSummary, 4), "Authors", variant.TagVectorLPWStr},
	{ColumnKeywords, propstore.MustKey(fmtidSummary, 5), "Tags", variant.TagVectorLPWStr},
	{"System.Comment", propstore.MustKey(fmtidSummary, 6), "Comments", variant.TagLPWStr},
	{"System.Document.PageCount", propstore.MustKey(fmtidSummary, 14), "Pages", variant.TagI4},
	{"System.Company", propstore.MustKey(fmtidDocument, 15), "Company", variant.TagLPWStr},
	{"System.Search.AutoSummary", propstore.MustKey("{560C36C0-503A-11CF-BAA1-00004C752A9A}", 2), "Summary", variant.TagLPWStr},
	{"System.Rating", propstore.MustKey("{64440492-4C8B-11D1-8B70-080036B11A03}", 9), "Rating", variant.TagUI4},
	{"System.Photo.CameraManufacturer", propstore.MustKey(fmtidPhoto, 271), "Camera maker", variant.TagLPWStr},
	{"System.Photo.CameraModel", propstore.MustKey(fmtidPhoto, 272), "Camera model", variant.TagLPWStr},
	{"System.Photo.DateTaken", propstore.MustKey(fmtidPhoto, 36867), "Date taken", variant.TagFileTime},
	{"System.GPS.Latitude", propstore.MustKey("{8727CFFF-4868-4EC6-AD5B-81B98521D1AB}", 100), "Latitude", variant.TagVectorR8},
	{"System.GPS.Longitude", propstore.MustKey("{C4C4DBB2-B593-466B-BBDA-D03D27D5E43A}", 100), "Longitude", variant.TagVectorR8},
}

// Text properties folded into the full-text column.
var searchTextSources = []string{
	ColumnName, "System.Title", "System.Subject", "System.Author", ColumnKeywords,
	"System.Comment", "System.Search.Contents", "System.Search.AutoSummary",
}

func columnAffinity(t variant.Tag) string {
	switch t {
	case variant.TagI1, variant.TagI2, variant.TagI4, variant.TagI8, variant.TagInt,
		variant.TagUI1, variant.TagUI2, variant.TagUI4, variant.TagUI8, variant.TagUInt,
		variant.TagBool:
		return "INTEGER"
	case variant.TagR4, variant.TagR8:
		return "REAL"
	}
	return "TEXT"
}

// loadProperties reads the property catalog. Caller holds b.mu.
func (b *EmbeddedBackend) loadProperties(ctx context.Context) (map[string]propertyDef, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT canonical_name, fmtid, pid, display_name, vt FROM properties`)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	defer rows.Close()

	props := make(map[string]propertyDef)
	for rows.Next() {
		var (
			p     propertyDef
			fmtid string
			pid   int64
			vt    int64
		)
		if err := rows.Scan(&p.Name, &fmtid, &pid, &p.Display, &vt); err != nil {
			return nil, fmt.Errorf("load properties: %w", err)
		}
		id, err := uuid.Parse(fmtid)
		if err != nil {
			return nil, fmt.Errorf("load property %s: %w", p.Name, err)
		}
		p.Key = propstore.Key{FormatID: id, PID: uint32(pid)}
		p.Type = variant.Tag(vt)
		props[strings.ToLower(p.Name)] = p
	}
	return props, rows.Err()
}

// property looks up a definition by canonical name.
func (b *EmbeddedBackend) property(name string) (propertyDef, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.props[strings.ToLower(name)]
	return p, ok
}

// propertyByKey looks up a definition by key.
func (b *EmbeddedBackend) propertyByKey(key propstore.Key) (propertyDef, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.props {
		if p.Key == key {
			return p, true
		}
	}
	return propertyDef{}, false
}

// RegisterProperty adds a property to the catalog and gives it an item
// column.
func (b *EmbeddedBackend) RegisterProperty(ctx context.Context, d propstore.Description) error {
	if d.CanonicalName == "" || d.Key.IsZero() {
		return errors.New("register property: canonical name and key are required")
	}
	err := b.Execute(ctx,
		`INSERT INTO properties (canonical_name, fmtid, pid, display_name, vt) VALUES (?, ?, ?, ?, ?)`,
		d.CanonicalName, d.Key.FormatID.String(), d.Key.PID, d.DisplayName, int(d.Type))
	if err != nil {
		return fmt.Errorf("register property %s: %w", d.CanonicalName, err)
	}
	return b.EnsureSchema(ctx)
}

// Describe implements propstore.Catalog.
func (b *EmbeddedBackend) Describe(ctx context.Context, key propstore.Key) (propstore.Description, error) {
	return b.describe(ctx, `SELECT canonical_name, display_name, vt, fmtid, pid FROM properties WHERE fmtid = ? AND pid = ?`,
		key.String(), key.FormatID.String(), key.PID)
}

// DescribeByName implements propstore.Catalog.
func (b *EmbeddedBackend) DescribeByName(ctx context.Context, name string) (propstore.Description, error) {
	return b.describe(ctx, `SELECT canonical_name, display_name, vt, fmtid, pid FROM properties WHERE canonical_name = ?`,
		name, name)
}

func (b *EmbeddedBackend) describe(ctx context.Context, query, what string, args ...any) (propstore.Description, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return propstore.Description{}, ErrClosed
	}

	var (
		d     propstore.Description
		vt    int64
		fmtid string
		pid   int64
	)
	err := b.db.QueryRowContext(ctx, query, args...).Scan(&d.CanonicalName, &d.DisplayName, &vt, &fmtid, &pid)
	if errors.Is(err, sql.ErrNoRows) {
		return propstore.Description{}, fmt.Errorf("%w: %s", propstore.ErrUnknownProperty, what)
	}
	if err != nil {
		return propstore.Description{}, fmt.Errorf("describe %s: %w", what, err)
	}
	id, err := uuid.Parse(fmtid)
	if err != nil {
		return propstore.Description{}, fmt.Errorf("describe %s: %w", what, err)
	}
	d.Key = propstore.Key{FormatID: id, PID: uint32(pid)}
	d.Type = variant.Tag(vt)
	return d, nil
}

// Properties lists the catalog sorted by canonical name.
func (b *EmbeddedBackend) Properties() []propstore.Description {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]propstore.Description, 0, len(b.props))
	for _, p := range b.props {
		out = append(out, p.description())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalName < out[j].CanonicalName })
	return out
}

func (p propertyDef) description() propstore.Description {
	return propstore.Description{Key: p.Key, CanonicalName: p.Name, DisplayName: p.Display, Type: p.Type}
}
