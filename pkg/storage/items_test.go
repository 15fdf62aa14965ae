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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedProperties(t *testing.T) {
	props := derivedProperties(`\\nas\share\Photos\IMG_01.JPG`)
	assert.Equal(t, "file://nas/share/Photos/IMG_01.JPG", props[ColumnURL].String())
	assert.Equal(t, "IMG_01.JPG", props[ColumnName].String())
	assert.Equal(t, ".jpg", props[ColumnExtension].String())

	props = derivedProperties("/srv/README")
	assert.Equal(t, "README", props[ColumnName].String())
	assert.NotContains(t, props, ColumnExtension)
}
