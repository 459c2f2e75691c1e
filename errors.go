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

package ethspi

import (
	"errors"
	"fmt"
)

// General errors
var (
	ErrTimeout          = errors.New("operation timeout")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrInvalidOption    = errors.New("invalid option")
)

// Frame codec errors
var (
	ErrDataTooLarge   = errors.New("payload exceeds frame capacity")
	ErrTransmitFailed = errors.New("transmit failed")
	ErrLinkClosed     = errors.New("link closed")
)

// SPI transaction errors
var (
	ErrInvalidSlave   = errors.New("slave id out of range")
	ErrInvalidLength  = errors.New("invalid transfer length")
	ErrNoFreeSlot     = errors.New("no free transaction slot")
	ErrQueueFull      = errors.New("transfer queue full")
	ErrInvalidHandle  = errors.New("empty transaction handle")
	ErrStaleHandle    = errors.New("transaction already reclaimed")
	ErrTransferFailed = errors.New("transfer failed")
	ErrBusClosed      = errors.New("bus closed")
)

// LinkError describes a failure reported by an Ethernet link driver
type LinkError struct {
	Err  error
	Op   string
	Link string
}

func (e *LinkError) Error() string {
	if e.Link == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Link, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// NewTransmitError wraps a driver failure as a transmit error
func NewTransmitError(link string, cause error) *LinkError {
	return &LinkError{
		Op:   "transmit",
		Link: link,
		Err:  fmt.Errorf("%w: %w", ErrTransmitFailed, cause),
	}
}

// BusError describes a failure on the SPI bus or its demultiplexer
type BusError struct {
	Err   error
	Op    string
	Bus   string
	Slave int
}

func (e *BusError) Error() string {
	if e.Slave < 0 {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Bus, e.Err)
	}
	return fmt.Sprintf("%s on %s (slave %d): %v", e.Op, e.Bus, e.Slave, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// IsResourceExhausted reports whether err means a transaction could not be
// admitted right now. Callers may try again later.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrNoFreeSlot) || errors.Is(err, ErrQueueFull)
}

// IsMisuse reports whether err is a caller contract violation
func IsMisuse(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrDataTooLarge),
		errors.Is(err, ErrInvalidSlave),
		errors.Is(err, ErrInvalidLength),
		errors.Is(err, ErrInvalidHandle),
		errors.Is(err, ErrStaleHandle):
		return true
	default:
		return false
	}
}
