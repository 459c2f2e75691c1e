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

/*
Package ethspi is the root of a small toolkit for boards that carry
application payloads in raw Ethernet frames and talk to up to eight SPI
devices through a 3-bit chip-select demultiplexer.

The root package only holds what every other package shares: the error
taxonomy and the package logger. The work is done in subpackages:

  - ethernet: frame codec and link monitor. Payloads are framed with a
    fixed ethertype and source/destination addresses, inbound frames are
    validated and delivered to a registered observer, and link up/down
    events are forwarded to a link watcher.
  - spimux: non-blocking SPI transactions. Issue returns a handle
    immediately, the bus driver selects the slave through the
    demultiplexer before the transfer and flags completion after it, and
    PollIsFinished reclaims the handle exactly once.
  - link/rawsock, link/serial: link drivers that transmit frames and feed
    received frames and link events into a codec.
  - bridge: mirrors received frames and link state to MQTT.
  - config: board configuration for the ethspictl command.

Basic Usage:

	codec, err := ethernet.NewCodec(link, nil, ethernet.WithSource(src))
	if err != nil {
	    log.Fatal(err)
	}
	codec.Observers().AttachReceiver(ethernet.ReceiverFunc(
	    func(src ethernet.MAC, payload []byte) {
	        // payload is only valid for the duration of the call
	    }))
	go link.Run(ctx, codec)

	if err := codec.Send([]byte("hello")); err != nil {
	    log.Fatal(err)
	}

	manager, err := spimux.NewManager(bus, demux, spimux.WithCapacity(8))
	if err != nil {
	    log.Fatal(err)
	}
	h, err := manager.Issue(3, tx, rx, len(tx))
	if err != nil {
	    log.Fatal(err)
	}
	for {
	    done, err := manager.PollIsFinished(&h)
	    if done {
	        // rx is filled in, h is now empty
	        break
	    }
	    if err != nil {
	        log.Fatal(err)
	    }
	}

Error Handling:

Errors wrap the sentinels declared here and can be inspected with
errors.Is, or classified with IsResourceExhausted and IsMisuse:

	if errors.Is(err, ethspi.ErrQueueFull) {
	    // Back off and issue again later
	}

Logging:

Logging is disabled by default. SetLogger or SetLogOutput install a
zerolog logger used by every component that was not given its own.
*/
package ethspi
