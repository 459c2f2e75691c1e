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

//go:build linux

package rawsock

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// iffPromisc is IFF_PROMISC as reported in /sys/class/net/<if>/flags
const iffPromisc = 0x100

func TestHtons(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint16(0x0300), htons(0x0003))
	assert.Equal(t, uint16(0xB588), htons(0x88B5))
}

func TestLinkUp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		flags net.Flags
		want  bool
	}{
		{name: "down", flags: 0, want: false},
		{name: "admin up without carrier", flags: net.FlagUp, want: false},
		{name: "running but admin down", flags: net.FlagRunning, want: false},
		{name: "up and running", flags: net.FlagUp | net.FlagRunning | net.FlagBroadcast, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, linkUp(tt.flags))
		})
	}
}

func TestOpen_UnknownInterface(t *testing.T) {
	t.Parallel()
	_, err := Open("ethspi-does-not-exist0")
	require.Error(t, err)
}

func TestPromiscuousRequest(t *testing.T) {
	t.Parallel()
	mreq := promiscuousRequest(7)
	assert.Equal(t, int32(7), mreq.Ifindex)
	assert.Equal(t, uint16(unix.PACKET_MR_PROMISC), mreq.Type)
	assert.Zero(t, mreq.Alen)
}

// openLoopback opens the raw link on lo, skipping when the test lacks
// CAP_NET_RAW
func openLoopback(t *testing.T) *Link {
	t.Helper()
	l, err := Open("lo")
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		t.Skipf("raw sockets not permitted: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func interfaceFlags(t *testing.T, name string) uint64 {
	t.Helper()
	raw, err := os.ReadFile("/sys/class/net/" + name + "/flags")
	if err != nil {
		t.Skipf("interface flags unavailable: %v", err)
	}
	flags, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x"), 16, 64)
	require.NoError(t, err)
	return flags
}

//nolint:paralleltest // changes the promiscuity of lo
func TestOpen_JoinsPromiscuousMode(t *testing.T) {
	openLoopback(t)
	assert.NotZero(t, interfaceFlags(t, "lo")&iffPromisc)
}

//nolint:paralleltest // changes the promiscuity of lo
func TestLink_LoopbackDeliversOwnFrames(t *testing.T) {
	l := openLoopback(t)

	var mu sync.Mutex
	var got [][]byte
	codec, err := ethernet.NewCodec(l, nil, ethernet.WithSource(ethernet.MAC{0x02, 0, 0, 0, 0, 0x01}))
	require.NoError(t, err)
	codec.Observers().AttachReceiver(ethernet.ReceiverFunc(func(_ ethernet.MAC, p []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, append([]byte(nil), p...))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, codec) }()

	require.NoError(t, codec.Send([]byte("over lo")))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range got {
			if string(p) == "over lo" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
