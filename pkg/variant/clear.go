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

package variant

import "errors"

// Clear releases every buffer owned by raw and resets it to EMPTY. It keeps
// going after a failed release and returns all failures joined. BYREF
// payloads are borrowed and never freed.
func Clear(raw *Raw, heap Heap) error {
	defer raw.Reset()

	t := raw.Tag()
	if t.IsByRef() {
		return nil
	}
	var errs []error
	free := func(addr uint64) {
		if addr == 0 {
			return
		}
		if err := heap.Free(addr); err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case t == TagLPStr, t == TagLPWStr, t == TagCLSID:
		free(raw.Word())
	case t == TagBSTR:
		if p := raw.Word(); p != 0 {
			free(p - 4)
		}
	case t == TagBlob:
		free(raw.Elems())
	case t.IsVector():
		switch t.Base() {
		case TagLPStr, TagLPWStr, TagBSTR:
			if raw.Count() > 0 && raw.Elems() != 0 {
				ptrs, err := readPointers(heap, raw.Elems(), raw.Count())
				if err != nil {
					errs = append(errs, err)
				}
				for _, p := range ptrs {
					if t.Base() == TagBSTR && p != 0 {
						p -= 4
					}
					free(p)
				}
			}
		}
		free(raw.Elems())
	}
	return errors.Join(errs...)
}
