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
	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of transactions a Manager tracks at once
const DefaultCapacity = 16

// Option is a functional option for configuring a Manager
type Option func(*Manager) error

// WithCapacity sets the number of transaction slots
func WithCapacity(n int) Option {
	return func(m *Manager) error {
		if n <= 0 {
			return fmt.Errorf("capacity must be positive, got %d: %w", n, ethspi.ErrInvalidOption)
		}
		m.capacity = n
		return nil
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) error {
		m.log = l
		return nil
	}
}

// WithIssueProbe raises line for the duration of every Issue call, for
// timing measurements with a logic analyser
func WithIssueProbe(line Line) Option {
	return func(m *Manager) error {
		m.issueProbe = line
		return nil
	}
}

// WithPollProbe raises line for the duration of every PollIsFinished call
func WithPollProbe(line Line) Option {
	return func(m *Manager) error {
		m.pollProbe = line
		return nil
	}
}
