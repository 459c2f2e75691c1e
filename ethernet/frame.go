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

package ethernet

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/internal/frame"
)

// Wire layout
const (
	HeaderSize   = frame.HeaderSize
	MaxDataLen   = frame.MaxDataLen
	MaxFrameSize = frame.MaxFrameSize
	Ethertype    = frame.Ethertype
)

// MAC is a 6-byte hardware address
type MAC [frame.MACLength]byte

// Broadcast is the all-ones destination address
var Broadcast = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMAC parses a colon or dash separated EUI-48 address
func ParseMAC(s string) (MAC, error) {
	var m MAC
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, fmt.Errorf("invalid MAC %q: %w", s, err)
	}
	if len(hw) != frame.MACLength {
		return m, fmt.Errorf("invalid MAC %q: want %d bytes, got %d", s, frame.MACLength, len(hw))
	}
	copy(m[:], hw)
	return m, nil
}

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// IsGroup reports whether the individual/group bit of m is set
func (m MAC) IsGroup() bool {
	return m[0]&0x01 != 0
}

// Frame is the fixed-layout frame exchanged over the link. Only the first
// DataLen bytes of Data are meaningful.
type Frame struct {
	Ethertype uint16
	Dst       MAC
	Src       MAC
	DataLen   uint16
	Data      [MaxDataLen]byte
}

// Payload returns the valid part of Data
func (f *Frame) Payload() []byte {
	n := int(f.DataLen)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	return f.Data[:n]
}

// WireLength returns the encoded size of f
func (f *Frame) WireLength() int {
	return frame.WireLength(int(f.DataLen))
}

// MarshalTo encodes header and valid payload into buf and returns the
// number of bytes written. buf must hold at least WireLength bytes.
func (f *Frame) MarshalTo(buf []byte) (int, error) {
	if int(f.DataLen) > MaxDataLen {
		return 0, fmt.Errorf("data length %d exceeds %d: %w", f.DataLen, MaxDataLen, ethspi.ErrDataTooLarge)
	}
	n := f.WireLength()
	if len(buf) < n {
		return 0, fmt.Errorf("buffer too small: need %d bytes, have %d", n, len(buf))
	}
	binary.BigEndian.PutUint16(buf[frame.EthertypeOffset:], f.Ethertype)
	copy(buf[frame.DstOffset:frame.SrcOffset], f.Dst[:])
	copy(buf[frame.SrcOffset:frame.DataLenOffset], f.Src[:])
	binary.BigEndian.PutUint16(buf[frame.DataLenOffset:], f.DataLen)
	copy(buf[frame.DataOffset:n], f.Data[:f.DataLen])
	return n, nil
}

// header is the decoded fixed part of a received frame
type header struct {
	Ethertype uint16
	Dst       MAC
	Src       MAC
	DataLen   uint16
}

// parseHeader decodes the header of raw. raw must hold at least HeaderSize bytes.
func parseHeader(raw []byte) header {
	var h header
	h.Ethertype = binary.BigEndian.Uint16(raw[frame.EthertypeOffset:])
	copy(h.Dst[:], raw[frame.DstOffset:frame.SrcOffset])
	copy(h.Src[:], raw[frame.SrcOffset:frame.DataLenOffset])
	h.DataLen = binary.BigEndian.Uint16(raw[frame.DataLenOffset:])
	return h
}
