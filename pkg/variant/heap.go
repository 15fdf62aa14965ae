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

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Heap is the memory that variant pointers refer to.
type Heap interface {
	io.ReaderAt
	io.WriterAt

	// Alloc reserves size bytes and returns the address of the block.
	Alloc(size int) (uint64, error)

	// Free releases the block starting at addr.
	Free(addr uint64) error
}

var (
	// ErrBadAddress is returned when an address does not fall inside a live block.
	ErrBadAddress = errors.New("variant: bad address")

	// ErrDoubleFree is returned when a block is freed twice.
	ErrDoubleFree = errors.New("variant: block already freed")
)

const (
	arenaBase  = 0x10000
	arenaAlign = 16
)

// Arena is an in-process Heap. Addresses are stable for the life of a block
// and never reused, so stale pointers fail loudly instead of aliasing.
type Arena struct {
	mu     sync.Mutex
	next   uint64
	blocks map[uint64][]byte
	bases  []uint64 // sorted, live and freed
	freed  map[uint64]bool
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		next:   arenaBase,
		blocks: make(map[uint64][]byte),
		freed:  make(map[uint64]bool),
	}
}

// Alloc implements Heap. Blocks are zero-filled.
func (a *Arena) Alloc(size int) (uint64, error) {
	if size < 0 {
		return 0, fmt.Errorf("variant: negative alloc size %d", size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.next
	span := uint64(size)
	if span == 0 {
		span = 1
	}
	a.next += (span + arenaAlign - 1) &^ (arenaAlign - 1)
	a.blocks[addr] = make([]byte, size)
	a.bases = append(a.bases, addr)
	return addr, nil
}

// Free implements Heap.
func (a *Arena) Free(addr uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.freed[addr] {
		return fmt.Errorf("%w: 0x%x", ErrDoubleFree, addr)
	}
	if _, ok := a.blocks[addr]; !ok {
		return fmt.Errorf("%w: free 0x%x", ErrBadAddress, addr)
	}
	delete(a.blocks, addr)
	a.freed[addr] = true
	return nil
}

// ReadAt implements io.ReaderAt. Reads never cross a block boundary; a short
// read at the end of a block returns io.EOF.
func (a *Arena) ReadAt(p []byte, off int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	block, start, err := a.locate(uint64(off))
	if err != nil {
		return 0, err
	}
	n := copy(p, block[start:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes must fit inside one block.
func (a *Arena) WriteAt(p []byte, off int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	block, start, err := a.locate(uint64(off))
	if err != nil {
		return 0, err
	}
	if uint64(len(p)) > uint64(len(block))-start {
		return 0, fmt.Errorf("%w: write of %d bytes at 0x%x overflows block", ErrBadAddress, len(p), off)
	}
	return copy(block[start:], p), nil
}

// Live returns the number of blocks not yet freed.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}

// locate finds the live block containing addr. Caller holds a.mu.
func (a *Arena) locate(addr uint64) ([]byte, uint64, error) {
	i := sort.Search(len(a.bases), func(i int) bool { return a.bases[i] > addr }) - 1
	if i < 0 {
		return nil, 0, fmt.Errorf("%w: 0x%x", ErrBadAddress, addr)
	}
	base := a.bases[i]
	block, ok := a.blocks[base]
	if !ok {
		return nil, 0, fmt.Errorf("%w: 0x%x (freed)", ErrBadAddress, addr)
	}
	start := addr - base
	if start >= uint64(len(block)) && !(start == 0 && len(block) == 0) {
		return nil, 0, fmt.Errorf("%w: 0x%x", ErrBadAddress, addr)
	}
	return block, start, nil
}
