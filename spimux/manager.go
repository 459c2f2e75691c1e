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

// Package spimux shares one SPI bus between up to eight devices selected
// through a 3-bit demultiplexer, with non-blocking issue and poll-based
// completion.
package spimux

import (
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

// Manager owns the bus and the demultiplexer address lines. Issue and
// PollIsFinished may be called from any goroutine; the hooks run on the
// bus driver goroutine.
type Manager struct {
	bus        Bus
	demux      *Demux
	arena      *arena
	issueProbe Line
	pollProbe  Line
	log        zerolog.Logger
	capacity   int
	mu         sync.Mutex
}

// NewManager creates a manager issuing transfers on bus and addressing
// slaves through demux
func NewManager(bus Bus, demux *Demux, opts ...Option) (*Manager, error) {
	m := &Manager{
		bus:      bus,
		demux:    demux,
		capacity: DefaultCapacity,
		log:      ethspi.ComponentLogger("spimux"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.arena = newArena(m.capacity)
	return m, nil
}

// Issue queues a length-byte transfer to slave and returns immediately.
// tx and rx may be nil for receive-only or transmit-only transfers and must
// stay untouched until the transaction is reported finished. On failure the
// returned handle is empty and nothing is left queued.
func (m *Manager) Issue(slave uint8, tx, rx []byte, length int) (Handle, error) {
	m.probe(m.issueProbe, gpio.High)
	defer m.probe(m.issueProbe, gpio.Low)

	if slave >= MaxSlaves {
		return Handle{}, m.issueError(slave, fmt.Errorf("slave %d (max %d): %w", slave, MaxSlaves-1, ethspi.ErrInvalidSlave))
	}
	if err := checkLength(tx, rx, length); err != nil {
		return Handle{}, m.issueError(slave, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, s, ok := m.arena.alloc()
	if !ok {
		return Handle{}, m.issueError(slave, ethspi.ErrNoFreeSlot)
	}

	s.ctx.reset(slave)
	s.xfer = Transfer{
		Hooks:   m,
		Context: &s.ctx,
		Bits:    8 * length,
	}
	if tx != nil {
		s.xfer.Tx = tx[:length]
	}
	if rx != nil {
		s.xfer.Rx = rx[:length]
	}

	if err := m.bus.Submit(&s.xfer); err != nil {
		m.arena.release(h)
		m.log.Debug().Err(err).Uint8("slave", slave).Msg("transfer not admitted")
		return Handle{}, m.issueError(slave, err)
	}

	m.log.Debug().Stringer("handle", h).Uint8("slave", slave).Int("len", length).Msg("transfer issued")
	return h, nil
}

// PollIsFinished reports whether the transaction behind h has completed.
// While pending it returns false and leaves the transaction alone. Once
// finished it reclaims the transaction, clears *h and returns true exactly
// once; the error then carries ErrTransferFailed if the driver reported a
// failure. Polling an empty or already reclaimed handle is an error.
func (m *Manager) PollIsFinished(h *Handle) (bool, error) {
	m.probe(m.pollProbe, gpio.High)
	defer m.probe(m.pollProbe, gpio.Low)

	if h == nil || h.IsZero() {
		return false, &ethspi.BusError{Op: "poll", Bus: m.busName(), Slave: -1, Err: ethspi.ErrInvalidHandle}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.arena.lookup(*h)
	if !ok {
		return false, &ethspi.BusError{
			Op: "poll", Bus: m.busName(), Slave: -1,
			Err: fmt.Errorf("%s: %w", h, ethspi.ErrStaleHandle),
		}
	}
	if !s.ctx.Done() {
		return false, nil
	}

	slave := s.ctx.Slave
	xferErr := s.ctx.Err()
	m.arena.release(*h)
	*h = Handle{}

	if xferErr != nil {
		return true, &ethspi.BusError{
			Op: "transfer", Bus: m.busName(), Slave: int(slave),
			Err: fmt.Errorf("%w: %w", ethspi.ErrTransferFailed, xferErr),
		}
	}
	return true, nil
}

// InFlight returns the number of transactions not yet reclaimed
func (m *Manager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arena.inFlight()
}

// PreTransfer implements Hooks by addressing the transaction's slave
func (m *Manager) PreTransfer(t *Transfer) error {
	return m.demux.Select(t.Context.Slave)
}

// PostTransfer implements Hooks by marking the transaction complete
func (*Manager) PostTransfer(t *Transfer, err error) {
	t.Context.complete(err)
}

func (m *Manager) issueError(slave uint8, err error) error {
	return &ethspi.BusError{Op: "issue", Bus: m.busName(), Slave: int(slave), Err: err}
}

func (m *Manager) busName() string {
	if s, ok := m.bus.(fmt.Stringer); ok {
		return s.String()
	}
	return "spi"
}

func (m *Manager) probe(line Line, level gpio.Level) {
	if line == nil {
		return
	}
	if err := line.Out(level); err != nil {
		m.log.Debug().Err(err).Msg("probe line write failed")
	}
}

func checkLength(tx, rx []byte, length int) error {
	switch {
	case length <= 0:
		return fmt.Errorf("length %d: %w", length, ethspi.ErrInvalidLength)
	case tx == nil && rx == nil:
		return fmt.Errorf("no tx or rx buffer: %w", ethspi.ErrInvalidLength)
	case tx != nil && len(tx) < length:
		return fmt.Errorf("tx buffer holds %d of %d bytes: %w", len(tx), length, ethspi.ErrInvalidLength)
	case rx != nil && len(rx) < length:
		return fmt.Errorf("rx buffer holds %d of %d bytes: %w", len(rx), length, ethspi.ErrInvalidLength)
	default:
		return nil
	}
}

var _ Hooks = (*Manager)(nil)
