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
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/rs/zerolog"
)

// Validate checks configuration correctness without mutating it
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Ethernet.Link {
	case LinkRawSocket:
		if strings.TrimSpace(cfg.Ethernet.Interface) == "" {
			errs = append(errs, errors.New("ethernet: interface is required for the rawsock link"))
		}
	case LinkSerial:
		if strings.TrimSpace(cfg.Ethernet.SerialPort) == "" {
			errs = append(errs, errors.New("ethernet: serial_port is required for the serial link"))
		}
		if cfg.Ethernet.Baud <= 0 {
			errs = append(errs, fmt.Errorf("ethernet: baud must be positive, got %d", cfg.Ethernet.Baud))
		}
	default:
		errs = append(errs, fmt.Errorf("ethernet: unknown link %q (want %s or %s)",
			cfg.Ethernet.Link, LinkRawSocket, LinkSerial))
	}

	for key, mac := range map[string]string{"src_mac": cfg.Ethernet.Source, "dst_mac": cfg.Ethernet.Destination} {
		if mac == "" {
			continue
		}
		if _, err := ethernet.ParseMAC(mac); err != nil {
			errs = append(errs, fmt.Errorf("ethernet: %s: %w", key, err))
		}
	}

	if _, err := cfg.SPI.ParsedFrequency(); err != nil {
		errs = append(errs, fmt.Errorf("spi: %w", err))
	}
	if cfg.SPI.Mode < 0 || cfg.SPI.Mode > 3 {
		errs = append(errs, fmt.Errorf("spi: mode must be 0-3, got %d", cfg.SPI.Mode))
	}
	if cfg.SPI.QueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("spi: queue_depth must be positive, got %d", cfg.SPI.QueueDepth))
	}
	if cfg.SPI.Capacity < cfg.SPI.QueueDepth {
		errs = append(errs, fmt.Errorf("spi: capacity %d is smaller than queue_depth %d",
			cfg.SPI.Capacity, cfg.SPI.QueueDepth))
	}

	pins := map[string]string{"a0": cfg.SPI.A0, "a1": cfg.SPI.A1, "a2": cfg.SPI.A2}
	owner := make(map[string]string)
	for _, key := range []string{"a0", "a1", "a2"} {
		name := pins[key]
		if name == "" {
			errs = append(errs, fmt.Errorf("spi: %s pin is required", key))
			continue
		}
		if prev, ok := owner[name]; ok {
			errs = append(errs, fmt.Errorf("spi: pin %s used for both %s and %s", name, prev, key))
			continue
		}
		owner[name] = key
	}
	probes := []struct{ key, name string }{
		{"issue_probe", cfg.SPI.IssueProbe},
		{"poll_probe", cfg.SPI.PollProbe},
	}
	for _, p := range probes {
		if p.name == "" {
			continue
		}
		if prev, ok := owner[p.name]; ok {
			errs = append(errs, fmt.Errorf("spi: pin %s used for both %s and %s", p.name, prev, p.key))
			continue
		}
		owner[p.name] = p.key
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}
