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

import (
	"fmt"

	"github.com/ZaparooProject/go-ethspi"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const (
	// AddressBits is the width of the demultiplexer address
	AddressBits = 3
	// MaxSlaves is the number of devices reachable through the demultiplexer
	MaxSlaves = 1 << AddressBits
)

// Line is a digital output driving one demultiplexer address input.
// periph gpio.PinOut satisfies it.
type Line interface {
	Out(l gpio.Level) error
}

// Demux drives the address inputs of the demultiplexer placed in front of
// the bus chip-select. Bit 0 of the slave id goes to A0, bit 1 to A1 and
// bit 2 to A2.
type Demux struct {
	lines [AddressBits]Line
}

// NewDemux creates a demultiplexer from already configured output lines
func NewDemux(a0, a1, a2 Line) *Demux {
	return &Demux{lines: [AddressBits]Line{a0, a1, a2}}
}

// OpenDemux looks the address pins up in the periph registry and drives
// them low, which configures them as outputs
func OpenDemux(a0, a1, a2 string) (*Demux, error) {
	var lines [AddressBits]Line
	for i, name := range []string{a0, a1, a2} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("demux line A%d: pin %q not found", i, name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("demux line A%d: failed to configure %s as output: %w", i, name, err)
		}
		lines[i] = p
	}
	return &Demux{lines: lines}, nil
}

// AddressLevels returns the line levels that address slave
func AddressLevels(slave uint8) [AddressBits]gpio.Level {
	var levels [AddressBits]gpio.Level
	for i := range levels {
		levels[i] = gpio.Level((slave>>i)&1 == 1)
	}
	return levels
}

// Select asserts the address of slave on the address lines
func (d *Demux) Select(slave uint8) error {
	if slave >= MaxSlaves {
		return fmt.Errorf("select slave %d: %w", slave, ethspi.ErrInvalidSlave)
	}
	for i, level := range AddressLevels(slave) {
		if err := d.lines[i].Out(level); err != nil {
			return fmt.Errorf("failed to drive demux line A%d: %w", i, err)
		}
	}
	return nil
}
