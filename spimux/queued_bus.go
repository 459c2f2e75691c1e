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
	"io"
	"sync"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultQueueDepth matches the depth of the hardware transaction queue
const DefaultQueueDepth = 10

// QueuedBus runs transfers on a periph SPI connection from a single worker
// goroutine, which plays the role of the driver context: hooks are always
// called from that goroutine.
type QueuedBus struct {
	conn   spi.Conn
	port   io.Closer
	queue  chan *Transfer
	stop   chan struct{}
	log    zerolog.Logger
	name   string
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// BusOption is a functional option for configuring a QueuedBus
type BusOption func(*QueuedBus) error

// WithQueueDepth sets how many transfers may wait for the worker
func WithQueueDepth(depth int) BusOption {
	return func(b *QueuedBus) error {
		if depth <= 0 {
			return fmt.Errorf("queue depth must be positive, got %d: %w", depth, ethspi.ErrInvalidOption)
		}
		b.queue = make(chan *Transfer, depth)
		return nil
	}
}

// WithBusLogger sets the logger used by the worker
func WithBusLogger(l zerolog.Logger) BusOption {
	return func(b *QueuedBus) error {
		b.log = l
		return nil
	}
}

// NewQueuedBus starts a worker executing transfers on conn
func NewQueuedBus(conn spi.Conn, opts ...BusOption) (*QueuedBus, error) {
	b := &QueuedBus{
		conn:  conn,
		name:  conn.String(),
		queue: make(chan *Transfer, DefaultQueueDepth),
		stop:  make(chan struct{}),
		log:   ethspi.ComponentLogger("spibus"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.wg.Add(1)
	go b.run()
	return b, nil
}

// OpenQueuedBus opens an SPI port from the periph registry with 8-bit words
// and starts a queued bus on it. host.Init must have been called.
func OpenQueuedBus(name string, freq physic.Frequency, mode spi.Mode, opts ...BusOption) (*QueuedBus, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", name, err)
	}
	conn, err := port.Connect(freq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI port %q at %s: %w", name, freq, err)
	}
	b, err := NewQueuedBus(conn, opts...)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	b.port = port
	return b, nil
}

// Submit queues t without blocking
func (b *QueuedBus) Submit(t *Transfer) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return &ethspi.BusError{Op: "submit", Bus: b.name, Slave: -1, Err: ethspi.ErrBusClosed}
	}
	select {
	case b.queue <- t:
		return nil
	default:
		return &ethspi.BusError{Op: "submit", Bus: b.name, Slave: -1, Err: ethspi.ErrQueueFull}
	}
}

// Close stops the worker. Transfers still queued complete with ErrBusClosed
// so their issuers can reclaim them.
func (b *QueuedBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.stop)
	b.mu.Unlock()

	b.wg.Wait()
	if b.port != nil {
		if err := b.port.Close(); err != nil {
			return fmt.Errorf("failed to close SPI port %s: %w", b.name, err)
		}
	}
	return nil
}

func (b *QueuedBus) String() string {
	return b.name
}

func (b *QueuedBus) run() {
	defer b.wg.Done()
	for {
		// stop takes priority over queued work
		select {
		case <-b.stop:
			b.drain()
			return
		default:
		}

		select {
		case t := <-b.queue:
			b.execute(t)
		case <-b.stop:
			b.drain()
			return
		}
	}
}

// drain aborts transfers queued before Close
func (b *QueuedBus) drain() {
	for {
		select {
		case t := <-b.queue:
			t.Hooks.PostTransfer(t, ethspi.ErrBusClosed)
		default:
			return
		}
	}
}

func (b *QueuedBus) execute(t *Transfer) {
	if err := t.Hooks.PreTransfer(t); err != nil {
		b.log.Warn().Err(err).Msg("pre-transfer hook failed, transfer skipped")
		t.Hooks.PostTransfer(t, err)
		return
	}

	n := t.Len()
	var w, r []byte
	if t.Tx != nil {
		w = t.Tx[:n]
	}
	if t.Rx != nil {
		r = t.Rx[:n]
	}
	err := b.conn.Tx(w, r)
	if err != nil {
		b.log.Error().Err(err).Int("len", n).Msg("SPI transfer failed")
		err = fmt.Errorf("tx %d bytes on %s: %w", n, b.name, err)
	} else {
		b.log.Debug().Int("len", n).Msg("SPI transfer done")
	}
	t.Hooks.PostTransfer(t, err)
}

var _ Bus = (*QueuedBus)(nil)
