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
	"fmt"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Codec
type Option func(*Codec) error

// WithDestination sets the destination address stamped on outgoing frames
func WithDestination(dst MAC) Option {
	return func(c *Codec) error {
		c.dst = dst
		return nil
	}
}

// WithSource sets the source address stamped on outgoing frames. Group
// addresses cannot be a source.
func WithSource(src MAC) Option {
	return func(c *Codec) error {
		if src.IsGroup() {
			return fmt.Errorf("source address %s is a group address: %w", src, ethspi.ErrInvalidOption)
		}
		c.src = src
		return nil
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(c *Codec) error {
		c.log = l
		return nil
	}
}
