// go-ethspi
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ethspi.
//
// go-ethspi is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ethspi is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ethspi; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package serial

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-ethspi/internal/frame"
)

// Decoder splits a byte stream into length-prefixed frames
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	// One byte beyond the largest valid frame keeps oversized frames
	// recognisable downstream
	return &Decoder{r: r, buf: make([]byte, frame.MaxFrameSize+1)}
}

// Next returns the next frame. The returned slice is reused by the
// following call. Frames longer than the buffer are consumed and returned
// cut to the buffer size.
func (d *Decoder) Next() ([]byte, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(d.r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	n := int(binary.BigEndian.Uint16(prefix[:]))

	keep := n
	if keep > len(d.buf) {
		keep = len(d.buf)
	}
	if _, err := io.ReadFull(d.r, d.buf[:keep]); err != nil {
		return nil, fmt.Errorf("read %d byte frame: %w", n, err)
	}
	if n > keep {
		if _, err := io.CopyN(io.Discard, d.r, int64(n-keep)); err != nil {
			return nil, fmt.Errorf("skip oversized frame: %w", err)
		}
	}
	return d.buf[:keep], nil
}
