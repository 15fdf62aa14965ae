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
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// maxStringBytes bounds terminator scans so a corrupt pointer cannot make
// the decoder read forever.
const maxStringBytes = 1 << 24

// maxVectorElems bounds the element count taken from a vector payload
// before anything is allocated for it.
const maxVectorElems = 1 << 20

const scanChunk = 64

var (
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	// ErrNullPointer is returned when a payload that must point somewhere is zero.
	ErrNullPointer = errors.New("variant: null pointer")

	// ErrUnterminated is returned when no terminator is found within maxStringBytes.
	ErrUnterminated = errors.New("variant: unterminated string")

	// ErrCountTooLarge is returned when a vector or blob payload claims more
	// elements than the decoder accepts.
	ErrCountTooLarge = errors.New("variant: element count too large")
)

// checkCount rejects element counts above maxVectorElems.
func checkCount(count uint32) error {
	if count > maxVectorElems {
		return fmt.Errorf("%w: %d", ErrCountTooLarge, count)
	}
	return nil
}

var (
	_ = checkCount
)

// readExact reads len(p) bytes at addr.
func readExact(mem io.ReaderAt, addr uint64, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if addr == 0 {
		return ErrNullPointer
	}
	n, err := mem.ReadAt(p, int64(addr))
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d bytes at 0x%x: %w", len(p), addr, err)
}

// readTerminated reads units of unitSize bytes starting at addr until a unit
// of all zero bytes, and returns the bytes before it.
func readTerminated(mem io.ReaderAt, addr uint64, unitSize int) ([]byte, error) {
	if addr == 0 {
		return nil, ErrNullPointer
	}
	var out []byte
	buf := make([]byte, scanChunk*unitSize)
	for off := uint64(0); len(out) < maxStringBytes; {
		n, err := mem.ReadAt(buf, int64(addr+off))
		n -= n % unitSize
		for i := 0; i < n; i += unitSize {
			if isZero(buf[i : i+unitSize]) {
				return append(out, buf[:i]...), nil
			}
		}
		out = append(out, buf[:n]...)
		off += uint64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("scan string at 0x%x: %w", addr, err)
		}
	}
	return nil, ErrUnterminated
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// readANSI decodes a NUL-terminated 8-bit string as Windows-1252.
func readANSI(mem io.ReaderAt, addr uint64) (string, error) {
	b, err := readTerminated(mem, addr, 1)
	if err != nil {
		return "", err
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode ANSI string: %w", err)
	}
	return string(s), nil
}

// readWide decodes a NUL-terminated UTF-16LE string.
func readWide(mem io.ReaderAt, addr uint64) (string, error) {
	b, err := readTerminated(mem, addr, 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16(b)
}

// readBSTR decodes a length-prefixed UTF-16LE string. The byte length is the
// uint32 stored just before addr.
func readBSTR(mem io.ReaderAt, addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}
	var prefix [4]byte
	if err := readExact(mem, addr-4, prefix[:]); err != nil {
		return "", fmt.Errorf("read BSTR length: %w", err)
	}
	n := le.Uint32(prefix[:])
	if n > maxStringBytes {
		return "", fmt.Errorf("BSTR length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if err := readExact(mem, addr, b); err != nil {
		return "", err
	}
	return decodeUTF16(b)
}

func decodeUTF16(b []byte) (string, error) {
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode UTF-16 string: %w", err)
	}
	return string(s), nil
}

func encodeUTF16(s string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode UTF-16 string: %w", err)
	}
	return b, nil
}

// readPointers reads count little-endian 64-bit pointers at addr.
func readPointers(mem io.ReaderAt, addr uint64, count uint32) ([]uint64, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	buf := make([]byte, int(count)*8)
	if err := readExact(mem, addr, buf); err != nil {
		return nil, err
	}
	ptrs := make([]uint64, count)
	for i := range ptrs {
		ptrs[i] = le.Uint64(buf[i*8:])
	}
	return ptrs, nil
}

// writeWide allocates a NUL-terminated UTF-16LE copy of s on heap.
func writeWide(heap Heap, s string) (uint64, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return 0, fmt.Errorf("variant: string contains NUL")
	}
	b, err := encodeUTF16(s)
	if err != nil {
		return 0, err
	}
	b = append(b, 0, 0)
	return writeBlock(heap, b)
}

// writeBlock allocates len(b) bytes on heap and copies b into them.
func writeBlock(heap Heap, b []byte) (uint64, error) {
	addr, err := heap.Alloc(len(b))
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return addr, nil
	}
	if _, err := heap.WriteAt(b, int64(addr)); err != nil {
		_ = heap.Free(addr)
		return 0, err
	}
	return addr, nil
}
