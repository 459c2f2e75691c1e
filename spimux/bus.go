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

import "sync/atomic"

// Transfer is one queued bus transaction. Tx and Rx belong to the caller
// and are used in place.
type Transfer struct {
	Hooks   Hooks
	Context *TransferContext
	Tx      []byte
	Rx      []byte
	Bits    int
}

// Len returns the transfer length in bytes
func (t *Transfer) Len() int {
	return t.Bits / 8
}

// TransferContext is the per-transaction state shared between the issuing
// goroutine and the bus driver. The driver writes it once through
// PostTransfer; the issuer only reads it after observing Done.
type TransferContext struct {
	err   error
	done  atomic.Bool
	Slave uint8
}

// Done reports whether the post-transfer hook has run
func (c *TransferContext) Done() bool {
	return c.done.Load()
}

// Err returns the driver error recorded at completion. Only valid once Done.
func (c *TransferContext) Err() error {
	return c.err
}

func (c *TransferContext) reset(slave uint8) {
	c.Slave = slave
	c.err = nil
	c.done.Store(false)
}

func (c *TransferContext) complete(err error) {
	c.err = err
	c.done.Store(true)
}

// Hooks are invoked by the bus driver around the electrical transfer
type Hooks interface {
	// PreTransfer runs before the transfer starts. A non-nil error aborts
	// the transfer, which then completes with that error.
	PreTransfer(t *Transfer) error
	// PostTransfer runs once the transfer has finished or was aborted.
	// The driver must not touch t after it returns.
	PostTransfer(t *Transfer, err error)
}

// Bus is a queued SPI driver. Submit must not block: when the queue is full
// it returns ethspi.ErrQueueFull and the transfer is not queued.
type Bus interface {
	Submit(t *Transfer) error
}
