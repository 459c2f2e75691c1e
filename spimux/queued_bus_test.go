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
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	testutil "github.com/ZaparooProject/go-ethspi/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFinished(t *testing.T, m *Manager, h *Handle) error {
	t.Helper()
	var pollErr error
	require.Eventually(t, func() bool {
		done, err := m.PollIsFinished(h)
		pollErr = err
		return done
	}, time.Second, time.Millisecond)
	return pollErr
}

func newTestBus(t *testing.T, conn *testutil.SPIConn, opts ...BusOption) *QueuedBus {
	t.Helper()
	bus, err := NewQueuedBus(conn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestNewQueuedBus_RejectsInvalidDepth(t *testing.T) {
	t.Parallel()
	bus, err := NewQueuedBus(testutil.NewSPIConn(), WithQueueDepth(0))
	require.ErrorIs(t, err, ethspi.ErrInvalidOption)
	assert.Nil(t, bus)
}

func TestQueuedBus_TransfersThroughManager(t *testing.T) {
	t.Parallel()
	conn := testutil.NewSPIConn()
	conn.Response = func(w []byte) []byte {
		out := make([]byte, len(w))
		for i, b := range w {
			out[i] = ^b
		}
		return out
	}
	bus := newTestBus(t, conn)
	pins := newTestPins()
	m := mustManager(t, bus, pins.demux())

	rx := make([]byte, 3)
	h, err := m.Issue(3, []byte{0x00, 0x0F, 0xAA}, rx, 3)
	require.NoError(t, err)

	require.NoError(t, waitFinished(t, m, &h))
	assert.True(t, h.IsZero())
	assert.Equal(t, []byte{0xFF, 0xF0, 0x55}, rx)
	assert.Equal(t, AddressLevels(3), pins.levels())

	exchanges := conn.Exchanges()
	require.Len(t, exchanges, 1)
	assert.Equal(t, []byte{0x00, 0x0F, 0xAA}, exchanges[0].Write)
}

func TestQueuedBus_OnlyLengthBytesAreClocked(t *testing.T) {
	t.Parallel()
	conn := testutil.NewSPIConn()
	bus := newTestBus(t, conn)
	m := mustManager(t, bus, newTestPins().demux())

	h, err := m.Issue(0, []byte{1, 2, 3, 4}, nil, 2)
	require.NoError(t, err)
	require.NoError(t, waitFinished(t, m, &h))

	exchanges := conn.Exchanges()
	require.Len(t, exchanges, 1)
	assert.Equal(t, []byte{1, 2}, exchanges[0].Write)
	assert.Empty(t, exchanges[0].Read)
}

func TestQueuedBus_PendingWhileInFlight(t *testing.T) {
	t.Parallel()
	conn := testutil.NewGatedSPIConn()
	bus := newTestBus(t, conn)
	m := mustManager(t, bus, newTestPins().demux())

	h, err := m.Issue(1, []byte{0x42}, nil, 1)
	require.NoError(t, err)

	done, err := m.PollIsFinished(&h)
	require.NoError(t, err)
	assert.False(t, done)

	conn.Release(1)
	require.NoError(t, waitFinished(t, m, &h))
	assert.Zero(t, m.InFlight())
}

func TestQueuedBus_QueueFullFailsImmediately(t *testing.T) {
	t.Parallel()
	conn := testutil.NewGatedSPIConn()
	bus := newTestBus(t, conn, WithQueueDepth(1))
	m := mustManager(t, bus, newTestPins().demux())

	// The worker holds at most one transfer and the queue one more
	var issued []Handle
	var fullErr error
	for i := 0; i < 3; i++ {
		start := time.Now()
		h, err := m.Issue(uint8(i), []byte{byte(i)}, nil, 1)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
		if err != nil {
			fullErr = err
			continue
		}
		issued = append(issued, h)
	}
	require.ErrorIs(t, fullErr, ethspi.ErrQueueFull)
	require.NotEmpty(t, issued)
	assert.Equal(t, len(issued), m.InFlight())

	conn.Release(len(issued))
	for i := range issued {
		require.NoError(t, waitFinished(t, m, &issued[i]))
	}
	assert.Zero(t, m.InFlight())
}

func TestQueuedBus_TransferError(t *testing.T) {
	t.Parallel()
	conn := testutil.NewSPIConn()
	conn.Err = errors.New("bus fault")
	bus := newTestBus(t, conn)
	m := mustManager(t, bus, newTestPins().demux())

	h, err := m.Issue(2, []byte{1}, nil, 1)
	require.NoError(t, err)

	err = waitFinished(t, m, &h)
	require.ErrorIs(t, err, ethspi.ErrTransferFailed)
	assert.Contains(t, err.Error(), "bus fault")
}

func TestQueuedBus_PreHookFailureSkipsTransfer(t *testing.T) {
	t.Parallel()
	conn := testutil.NewSPIConn()
	bus := newTestBus(t, conn)
	m := mustManager(t, bus, NewDemux(brokenLine{}, brokenLine{}, brokenLine{}))

	h, err := m.Issue(0, []byte{1}, nil, 1)
	require.NoError(t, err)

	err = waitFinished(t, m, &h)
	require.ErrorIs(t, err, ethspi.ErrTransferFailed)
	assert.Empty(t, conn.Exchanges())
}

func TestQueuedBus_SubmitAfterClose(t *testing.T) {
	t.Parallel()
	bus := newTestBus(t, testutil.NewSPIConn())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	m := mustManager(t, bus, newTestPins().demux())
	h, err := m.Issue(0, []byte{1}, nil, 1)
	require.ErrorIs(t, err, ethspi.ErrBusClosed)
	assert.True(t, h.IsZero())
	assert.Zero(t, m.InFlight())
}

func TestQueuedBus_DrainCompletesQueuedTransfers(t *testing.T) {
	t.Parallel()
	// No worker: transfers stay queued until drained
	bus := &QueuedBus{queue: make(chan *Transfer, 4), stop: make(chan struct{})}
	m := mustManager(t, bus, newTestPins().demux())

	h1, err := m.Issue(0, []byte{1}, nil, 1)
	require.NoError(t, err)
	h2, err := m.Issue(1, []byte{2}, nil, 1)
	require.NoError(t, err)

	bus.drain()

	for _, h := range []*Handle{&h1, &h2} {
		done, pollErr := m.PollIsFinished(h)
		assert.True(t, done)
		require.ErrorIs(t, pollErr, ethspi.ErrBusClosed)
	}
	assert.Zero(t, m.InFlight())
}
