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

// Package frame provides the wire layout and buffer handling shared by the
// Ethernet frame codec and its link drivers
package frame

// Field offsets within an encoded frame
const (
	EthertypeOffset = 0  // 2 bytes, network byte order
	DstOffset       = 2  // 6 bytes
	SrcOffset       = 8  // 6 bytes
	DataLenOffset   = 14 // 2 bytes, network byte order
	DataOffset      = 16
)

// Frame size limits
const (
	MACLength    = 6
	HeaderSize   = DataOffset
	MaxDataLen   = 1484                    // Payload capacity
	MaxFrameSize = HeaderSize + MaxDataLen // 1500, one standard MTU
)

// Ethertype tags every frame produced or accepted by this module
// (IEEE 802 local experimental ethertype 1)
const Ethertype uint16 = 0x88B5

// WireLength returns the number of bytes a frame with dataLen payload
// bytes occupies on the wire
func WireLength(dataLen int) int {
	return HeaderSize + dataLen
}
