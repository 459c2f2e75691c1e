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

package config

import (
	"encoding/hex"
	"fmt"

	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/denisbrodbeck/machineid"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// macAppID scopes the machine id hash so the derived address is not the
// raw machine identifier
const macAppID = "go-ethspi"

// ParsedFrequency returns the bus clock, e.g. "10MHz"
func (c *SPIConfig) ParsedFrequency() (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(c.Frequency); err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", c.Frequency, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("invalid frequency %q: must be positive", c.Frequency)
	}
	return f, nil
}

// SPIMode returns the configured clock polarity/phase
func (c *SPIConfig) SPIMode() spi.Mode {
	return spi.Mode(c.Mode)
}

// Addresses returns the source and destination MACs for outgoing frames.
// Without an explicit src_mac the source is derived from the machine id.
func (c *EthernetConfig) Addresses() (src, dst ethernet.MAC, err error) {
	dst = ethernet.Broadcast
	if c.Destination != "" {
		if dst, err = ethernet.ParseMAC(c.Destination); err != nil {
			return src, dst, err
		}
	}
	if c.Source != "" {
		src, err = ethernet.ParseMAC(c.Source)
		return src, dst, err
	}
	id, err := machineid.ProtectedID(macAppID)
	if err != nil {
		return src, dst, fmt.Errorf("no src_mac configured and machine id unavailable: %w", err)
	}
	src, err = MACFromID(id)
	return src, dst, err
}

// MACFromID turns a hex identifier into a locally administered unicast MAC
func MACFromID(id string) (ethernet.MAC, error) {
	var m ethernet.MAC
	raw, err := hex.DecodeString(id)
	if err != nil {
		return m, fmt.Errorf("machine id is not hex: %w", err)
	}
	if len(raw) < len(m) {
		return m, fmt.Errorf("machine id too short: %d bytes", len(raw))
	}
	copy(m[:], raw)
	m[0] = (m[0] | 0x02) &^ 0x01
	return m, nil
}
