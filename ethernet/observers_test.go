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

package ethernet_test

import (
	"testing"

	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObservedCodec(t *testing.T, obs *ethernet.Observers) *ethernet.Codec {
	t.Helper()
	codec, err := ethernet.NewCodec(nil, obs)
	require.NoError(t, err)
	return codec
}

func TestObservers_LastAttachWins(t *testing.T) {
	t.Parallel()
	obs := ethernet.NewObservers()
	codec := newObservedCodec(t, obs)

	var first, second int
	obs.AttachReceiver(ethernet.ReceiverFunc(func(ethernet.MAC, []byte) { first++ }))
	obs.AttachReceiver(ethernet.ReceiverFunc(func(ethernet.MAC, []byte) { second++ }))

	codec.Receive(buildRaw(ethernet.Ethertype, 0, nil))

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestObservers_DetachIsIdempotent(t *testing.T) {
	t.Parallel()
	obs := ethernet.NewObservers()
	codec := newObservedCodec(t, obs)

	calls := 0
	obs.AttachReceiver(ethernet.ReceiverFunc(func(ethernet.MAC, []byte) { calls++ }))
	obs.DetachReceiver()
	obs.DetachReceiver()
	obs.DetachLinkWatcher()
	obs.DetachLinkWatcher()

	assert.Equal(t, ethernet.VerdictNoObserver, codec.Receive(buildRaw(ethernet.Ethertype, 0, nil)))
	assert.Zero(t, calls)
}

func TestObservers_KindsAreIndependent(t *testing.T) {
	t.Parallel()
	obs := ethernet.NewObservers()
	codec := newObservedCodec(t, obs)

	var ups []bool
	obs.AttachLinkWatcher(ethernet.LinkWatcherFunc(func(up bool) { ups = append(ups, up) }))
	obs.DetachReceiver()

	codec.HandleEvent(ethernet.EventConnected)
	assert.Equal(t, []bool{true}, ups)
}
