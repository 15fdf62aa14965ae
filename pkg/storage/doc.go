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

// Package storage is the local content index: a SQLite file that emulates
// the SystemIndex catalog so that scoped queries, keyword extraction and
// property stores work without the platform search service.
//
// # Backends
//
// The Backend interface covers raw statements against the index file.
// EmbeddedBackend is the only implementation; it also serves the other
// boundaries of the module:
//
//   - index.Dialer: Connect opens a connection that accepts SystemIndex SQL
//   - propstore.Opener: OpenStore opens a file's property store
//   - propstore.Catalog: Describe and DescribeByName resolve property keys
//
// # Quick Start
//
//	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
//	    Path: "/path/to/index.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	// Populate the index from a directory tree
//	stats, err := backend.Crawl(ctx, "/home/me/Documents")
//
//	// Or skip some of it
//	stats, err = backend.CrawlWith(ctx, "/srv/share", storage.CrawlOptions{
//	    Exclude:     []string{"*.iso", "archive/**"},
//	    MaxFileSize: 100 << 20,
//	})
//
//	// Query it through the search pipeline
//	results, err := search.NewSearcher(backend, aqs.Generator{}, search.Options{}).
//	    PerformSearch(ctx, "/home/me/Documents", "report")
//
// # Schema
//
// EnsureSchema creates three tables:
//
//   - properties: the catalog, one row per canonical name with its
//     FMTID/PID key, display name and variant type
//   - items: one row per file keyed by System.ItemPathDisplay, one column
//     per catalog property, plus the full-text column search_text
//   - file_properties: values written through property stores
//
// Registering a property with RegisterProperty adds its items column.
//
// # SQL Dialect
//
// Statements are written against SystemIndex and translated before they
// reach SQLite:
//
//	SELECT TOP 5 System.ItemName FROM SystemIndex
//	WHERE SCOPE='file:C:/Docs' AND CONTAINS(*, '"report*"')
//
// becomes
//
//	SELECT [System.ItemName] FROM items
//	WHERE scope_match([System.ItemPathDisplay], 'file:C:/Docs')
//	AND contains_match(search_text, '"report*"') LIMIT 5
//
// SCOPE matches a directory tree, DIRECTORY its direct children only.
// CONTAINS understands terms, quoted phrases, trailing-* prefixes and
// AND/OR/NOT; FREETEXT matches any word. A host-qualified table
// (host.SystemIndex) must name one of EmbeddedConfig.Hosts.
//
// # Thread Safety
//
// EmbeddedBackend is safe for concurrent use. Reads share a lock, writes
// take it exclusively. Connections and property stores it hands out are
// not safe for concurrent use.
package storage
