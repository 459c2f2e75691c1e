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

// Verdict is the outcome of handing one inbound frame to the codec
type Verdict int

const (
	// VerdictDelivered means the payload reached the receive observer
	VerdictDelivered Verdict = iota
	// VerdictNoObserver means the frame was dropped because nobody listens
	VerdictNoObserver
	// VerdictTooShort means the buffer cannot even hold a header
	VerdictTooShort
	// VerdictTooLong means the buffer exceeds header plus payload capacity
	VerdictTooLong
	// VerdictBadEthertype means the frame belongs to another protocol
	VerdictBadEthertype
	// VerdictTruncated means the declared payload runs past the buffer
	VerdictTruncated
)

func (v Verdict) String() string {
	switch v {
	case VerdictDelivered:
		return "delivered"
	case VerdictNoObserver:
		return "no observer"
	case VerdictTooShort:
		return "frame too short"
	case VerdictTooLong:
		return "frame too long"
	case VerdictBadEthertype:
		return "unexpected ethertype"
	case VerdictTruncated:
		return "data longer than available frame"
	default:
		return "unknown"
	}
}

// Event is a link-level notification raised by a link driver
type Event int

const (
	EventStarted Event = iota
	EventStopped
	EventConnected
	EventDisconnected
	EventGotIP
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventConnected:
		return "link up"
	case EventDisconnected:
		return "link down"
	case EventGotIP:
		return "got ip"
	default:
		return "unknown"
	}
}
