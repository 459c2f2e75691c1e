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

package testing

import (
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// Exchange is one recorded SPI transaction
type Exchange struct {
	Write []byte
	Read  []byte
}

// SPIConn is an in-memory spi.Conn. Each Tx blocks until Release is called
// when Gate is enabled, which lets tests observe transfers while in flight.
type SPIConn struct {
	Response  func(w []byte) []byte
	Err       error
	gate      chan struct{}
	exchanges []Exchange
	mu        sync.Mutex
}

// NewSPIConn creates a fake connection echoing nothing back
func NewSPIConn() *SPIConn {
	return &SPIConn{}
}

// NewGatedSPIConn creates a fake connection whose transfers wait for Release
func NewGatedSPIConn() *SPIConn {
	return &SPIConn{gate: make(chan struct{}, 64)}
}

// Release lets n gated transfers complete
func (c *SPIConn) Release(n int) {
	for i := 0; i < n; i++ {
		c.gate <- struct{}{}
	}
}

// Tx implements conn.Conn
func (c *SPIConn) Tx(w, r []byte) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if c.Response != nil && r != nil {
		copy(r, c.Response(w))
	}
	c.exchanges = append(c.exchanges, Exchange{
		Write: append([]byte(nil), w...),
		Read:  append([]byte(nil), r...),
	})
	return nil
}

// TxPackets implements spi.Conn
func (c *SPIConn) TxPackets(p []spi.Packet) error {
	for i := range p {
		if err := c.Tx(p[i].W, p[i].R); err != nil {
			return err
		}
	}
	return nil
}

// Duplex implements conn.Conn
func (*SPIConn) Duplex() conn.Duplex {
	return conn.Full
}

func (*SPIConn) String() string {
	return "fake-spi"
}

// Exchanges returns all completed transfers in order
func (c *SPIConn) Exchanges() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Exchange(nil), c.exchanges...)
}

var _ spi.Conn = (*SPIConn)(nil)
