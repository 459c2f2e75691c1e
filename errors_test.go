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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsResourceExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "no free slot", err: ErrNoFreeSlot, want: true},
		{name: "queue full", err: ErrQueueFull, want: true},
		{
			name: "queue full inside bus error",
			err:  &BusError{Op: "submit", Bus: "SPI0.0", Slave: 2, Err: ErrQueueFull},
			want: true,
		},
		{name: "wrapped no free slot", err: fmt.Errorf("issue: %w", ErrNoFreeSlot), want: true},
		{name: "invalid slave", err: ErrInvalidSlave, want: false},
		{name: "transfer failed", err: ErrTransferFailed, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsResourceExhausted(tt.err))
		})
	}
}

func TestIsMisuse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "data too large", err: ErrDataTooLarge, want: true},
		{name: "invalid option", err: fmt.Errorf("capacity: %w", ErrInvalidOption), want: true},
		{name: "invalid slave", err: ErrInvalidSlave, want: true},
		{name: "invalid length", err: ErrInvalidLength, want: true},
		{name: "empty handle", err: ErrInvalidHandle, want: true},
		{
			name: "stale handle inside bus error",
			err:  &BusError{Op: "poll", Bus: "spi", Slave: -1, Err: ErrStaleHandle},
			want: true,
		},
		{name: "queue full", err: ErrQueueFull, want: false},
		{name: "transmit failed", err: NewTransmitError("eth0", errors.New("EIO")), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsMisuse(tt.err))
		})
	}
}

func TestNewTransmitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("network down")
	err := NewTransmitError("eth0", cause)

	assert.ErrorIs(t, err, ErrTransmitFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transmit on eth0: transmit failed: network down", err.Error())

	var linkErr *LinkError
	assert.ErrorAs(t, fmt.Errorf("send: %w", err), &linkErr)
	assert.Equal(t, "eth0", linkErr.Link)
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		name     string
		contains []string
	}{
		{
			name:     "link error without link name",
			err:      &LinkError{Op: "open", Err: ErrLinkClosed},
			contains: []string{"open: link closed"},
		},
		{
			name:     "bus error with slave",
			err:      &BusError{Op: "select", Bus: "SPI0.0", Slave: 5, Err: errors.New("pin stuck")},
			contains: []string{"select on SPI0.0", "slave 5", "pin stuck"},
		},
		{
			name:     "bus error without slave",
			err:      &BusError{Op: "close", Bus: "SPI0.0", Slave: -1, Err: ErrBusClosed},
			contains: []string{"close on SPI0.0: bus closed"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}
