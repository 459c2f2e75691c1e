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

//go:build linux

package main

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-ethspi/config"
	"github.com/ZaparooProject/go-ethspi/link/rawsock"
	"github.com/ZaparooProject/go-ethspi/link/serial"
)

const (
	serialOpenAttempts = 5
	serialOpenDelay    = 500 * time.Millisecond
)

func openLink(cfg *config.EthernetConfig) (frameLink, error) {
	switch cfg.Link {
	case config.LinkRawSocket:
		return rawsock.Open(cfg.Interface)
	case config.LinkSerial:
		return serial.OpenWithRetry(cfg.SerialPort, cfg.Baud, serialOpenAttempts, serialOpenDelay)
	default:
		return nil, fmt.Errorf("unknown link %q", cfg.Link)
	}
}
