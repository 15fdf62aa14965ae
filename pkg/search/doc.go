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

// Package search runs scoped queries against the content index.
//
// A Session binds one index connection to one root folder. Every statement
// submitted through Session.Query is rewritten so that it only sees items
// under that root, and its results stream back through a Cursor that decodes
// each cell into a variant.Value:
//
//	sess, err := search.Open(ctx, dialer, `C:\Docs`, search.Options{})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	cur, err := sess.Query(ctx, "SELECT System.ItemPathDisplay FROM SystemIndex")
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//
//	for {
//	    row, err := cur.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// Searcher wraps the open/query/close sequence for one-shot callers and adds
// keyword search through an index.QueryGenerator.
//
// # Errors
//
// Failures carry one of the sentinel kinds below so callers can tell bad
// input (ErrInvalidPath, ErrQuerySyntaxMismatch) from executor trouble
// (ErrQueryExecution, with ErrQueryTimeout for expired deadlines). Cells that
// cannot be decoded never fail a row; they come back as
// variant.Unsupported. Release failures are logged and swallowed.
package search
