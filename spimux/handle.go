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

package spimux

import "fmt"

// Handle identifies an issued transaction. The zero Handle is empty.
// A handle becomes stale once its transaction is reclaimed; the slot it
// pointed to may then be reused under a new generation.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the empty handle
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "spi#empty"
	}
	return fmt.Sprintf("spi#%d.%d", h.index, h.gen)
}

// slot is the bookkeeping record of one transaction. Slots never move, so
// pointers handed to the bus stay valid while the transaction is in flight.
type slot struct {
	xfer Transfer
	ctx  TransferContext
	gen  uint32
	used bool
}

// arena is a fixed pool of transaction slots. Not safe for concurrent use.
type arena struct {
	slots []slot
	free  []uint32
}

func newArena(capacity int) *arena {
	a := &arena{
		slots: make([]slot, capacity),
		free:  make([]uint32, 0, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		a.slots[i].gen = 1
		a.free = append(a.free, uint32(i))
	}
	return a
}

// alloc takes a free slot, or returns false when all are in flight
func (a *arena) alloc() (Handle, *slot, bool) {
	if len(a.free) == 0 {
		return Handle{}, nil, false
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	s := &a.slots[idx]
	s.used = true
	return Handle{index: idx, gen: s.gen}, s, true
}

// lookup returns the live slot addressed by h
func (a *arena) lookup(h Handle) (*slot, bool) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.used || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// release frees the slot addressed by h and retires its generation
func (a *arena) release(h Handle) {
	s := &a.slots[h.index]
	s.used = false
	s.xfer = Transfer{}
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.index)
}

func (a *arena) inFlight() int {
	return len(a.slots) - len(a.free)
}
