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

package serial

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/ethernet"
	testutil "github.com/ZaparooProject/go-ethspi/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort reads from a pipe fed by the test and records writes
type fakePort struct {
	in      *io.PipeReader
	feed    *io.PipeWriter
	written bytes.Buffer
	dsr     bool
	mu      sync.Mutex
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{in: r, feed: w}
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.in.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	_ = p.feed.Close()
	return p.in.Close()
}

func (*fakePort) SetReadTimeout(time.Duration) error {
	return nil
}

func (p *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &serial.ModemStatusBits{DSR: p.dsr}, nil
}

func (p *fakePort) setDSR(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dsr = v
}

func (p *fakePort) output() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

func TestLink_TransmitPrefixesLength(t *testing.T) {
	t.Parallel()
	port := newFakePort()
	link, err := New("ttyFAKE0", port)
	require.NoError(t, err)

	require.NoError(t, link.Transmit([]byte{0x88, 0xB5, 0x01}))
	assert.Equal(t, []byte{0x00, 0x03, 0x88, 0xB5, 0x01}, port.output())

	err = link.Transmit(make([]byte, ethernet.MaxFrameSize+1))
	require.ErrorIs(t, err, ethspi.ErrDataTooLarge)
}

func TestLink_RunDeliversFramesAndLinkState(t *testing.T) {
	t.Parallel()
	port := newFakePort()
	port.setDSR(true)
	link, err := New("ttyFAKE0", port)
	require.NoError(t, err)
	link.interval = time.Millisecond

	var mu sync.Mutex
	var payloads [][]byte
	var states []bool
	obs := ethernet.NewObservers()
	obs.AttachReceiver(ethernet.ReceiverFunc(func(_ ethernet.MAC, p []byte) {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, append([]byte(nil), p...))
	}))
	obs.AttachLinkWatcher(ethernet.LinkWatcherFunc(func(up bool) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, up)
	}))

	// Encode the frame with a second codec writing into a buffer link
	encoder := testutil.NewLoopbackTransmitter()
	encCodec, err := ethernet.NewCodec(encoder, nil)
	require.NoError(t, err)
	require.NoError(t, encCodec.Send([]byte("ping")))
	wire := encoder.Frames()[0]

	codec, err := ethernet.NewCodec(link, obs)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Run(ctx, codec) }()

	_, err = port.feed.Write(append([]byte{0x00, byte(len(wire))}, wire...))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(payloads) == 1 && len(states) == 1
	}, time.Second, time.Millisecond)

	port.setDSR(false)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, link.Close())
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []byte("ping"), payloads[0])
	assert.Equal(t, []bool{true, false}, states)
}

func TestDecoder(t *testing.T) {
	t.Parallel()

	t.Run("consecutive frames", func(t *testing.T) {
		t.Parallel()
		dec := NewDecoder(bytes.NewReader([]byte{0x00, 0x02, 0xAA, 0xBB, 0x00, 0x00, 0x00, 0x01, 0xCC}))

		f, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xAA, 0xBB}, f)

		f, err = dec.Next()
		require.NoError(t, err)
		assert.Empty(t, f)

		f, err = dec.Next()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xCC}, f)

		_, err = dec.Next()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("oversized frame is cut and skipped", func(t *testing.T) {
		t.Parallel()
		size := ethernet.MaxFrameSize + 10
		stream := []byte{byte(size >> 8), byte(size)}
		stream = append(stream, make([]byte, size)...)
		stream = append(stream, 0x00, 0x01, 0x7F)
		dec := NewDecoder(bytes.NewReader(stream))

		f, err := dec.Next()
		require.NoError(t, err)
		assert.Len(t, f, ethernet.MaxFrameSize+1)

		f, err = dec.Next()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x7F}, f)
	})

	t.Run("truncated stream", func(t *testing.T) {
		t.Parallel()
		dec := NewDecoder(bytes.NewReader([]byte{0x00, 0x05, 0x01}))
		_, err := dec.Next()
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
