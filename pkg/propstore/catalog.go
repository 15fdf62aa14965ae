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

package propstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kraklabs/scopeq/pkg/variant"
)

// ErrUnknownProperty is returned by a Catalog for names or keys it does not
// describe.
var ErrUnknownProperty = errors.New("unknown property")

// Description is the catalog entry of one property.
type Description struct {
	Key           Key
	CanonicalName string
	DisplayName   string

	// Type is the tag values of this property are stored with.
	Type variant.Tag
}

// Label returns the display name, or the canonical name when there is none.
func (d Description) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.CanonicalName
}

// Catalog is the property metadata catalog.
type Catalog interface {
	Describe(ctx context.Context, key Key) (Description, error)
	DescribeByName(ctx context.Context, canonicalName string) (Description, error)
}

// KeyByName resolves a canonical name to its key.
func KeyByName(ctx context.Context, c Catalog, canonicalName string) (Key, error) {
	d, err := c.DescribeByName(ctx, canonicalName)
	if err != nil {
		return Key{}, fmt.Errorf("resolve %s: %w", canonicalName, err)
	}
	return d.Key, nil
}

// NameOf resolves a key to its canonical name, falling back to the key's
// text form for properties the catalog does not know.
func NameOf(ctx context.Context, c Catalog, key Key) string {
	d, err := c.Describe(ctx, key)
	if err != nil {
		return key.String()
	}
	return d.CanonicalName
}
