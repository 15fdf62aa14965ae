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

// Package bootstrap locates and opens the local search index.
//
// Commands that only read (queries, keywords, props) open an existing index
// and fail with a hint when there is none. The indexing command creates it:
//
//	backend, err := bootstrap.OpenIndex(bootstrap.IndexConfig{
//	    Path:   cfg.Index,
//	    Create: true,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
// Opening is idempotent; the schema is brought up to date on every open.
// Path defaults to ~/.scopeq/index.db.
package bootstrap
