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

// Package rawsock attaches the frame codec to a Linux network interface
// through an AF_PACKET socket
package rawsock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/ZaparooProject/go-ethspi/internal/frame"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	readTimeout         = 100 * time.Millisecond
	defaultLinkInterval = 500 * time.Millisecond
)

// Link is a raw packet socket bound to one interface
type Link struct {
	log      zerolog.Logger
	iface    *net.Interface
	addr     *unix.SockaddrLinklayer
	fd       int
	interval time.Duration
	mu       sync.Mutex
	closed   bool
}

// Open binds a raw socket to the named interface and switches the interface
// to promiscuous mode until Close. It needs CAP_NET_RAW.
func Open(ifname string) (*Link, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("failed to look up interface %s: %w", ifname, err)
	}

	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, &ethspi.LinkError{Op: "open", Link: ifname, Err: err}
	}

	addr := &unix.SockaddrLinklayer{Protocol: proto, Ifindex: iface.Index}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, &ethspi.LinkError{Op: "bind", Link: ifname, Err: err}
	}

	// The frame layout puts the ethertype where the NIC expects the
	// destination address, so peer frames only get through in promiscuous mode
	mreq := promiscuousRequest(iface.Index)
	if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
		_ = unix.Close(fd)
		return nil, &ethspi.LinkError{Op: "set promiscuous", Link: ifname, Err: err}
	}

	tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, &ethspi.LinkError{Op: "setsockopt", Link: ifname, Err: err}
	}

	return &Link{
		fd:       fd,
		iface:    iface,
		addr:     addr,
		interval: defaultLinkInterval,
		log:      ethspi.ComponentLogger("rawsock").With().Str("link", ifname).Logger(),
	}, nil
}

// Transmit implements ethernet.Transmitter
func (l *Link) Transmit(b []byte) error {
	if l.isClosed() {
		return ethspi.ErrLinkClosed
	}
	if err := unix.Sendto(l.fd, b, 0, l.addr); err != nil {
		return fmt.Errorf("sendto: %w", err)
	}
	return nil
}

// Run reads frames into sink and reports link transitions until ctx is
// done or the link is closed. The receive buffer is reused between frames.
func (l *Link) Run(ctx context.Context, sink ethernet.Sink) error {
	sink.HandleEvent(ethernet.EventStarted)
	defer sink.HandleEvent(ethernet.EventStopped)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.watch(ctx, sink)
	}()

	// One byte larger than any valid frame so oversized frames stay visible
	buf := make([]byte, frame.MaxFrameSize+1)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, _, err := unix.Recvfrom(l.fd, buf, 0)
		switch {
		case err == nil:
			sink.Receive(buf[:n])
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case l.isClosed():
			return nil
		default:
			return &ethspi.LinkError{Op: "receive", Link: l.iface.Name, Err: err}
		}
	}
}

// watch polls the interface flags and raises connect/disconnect events on
// every change. The first observation always produces an event.
func (l *Link) watch(ctx context.Context, sink ethernet.Sink) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	known := false
	var up bool
	for {
		current, err := l.carrier()
		if err != nil {
			l.log.Debug().Err(err).Msg("interface lookup failed")
		} else if !known || current != up {
			known, up = true, current
			if up {
				sink.HandleEvent(ethernet.EventConnected)
			} else {
				sink.HandleEvent(ethernet.EventDisconnected)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l *Link) carrier() (bool, error) {
	iface, err := net.InterfaceByIndex(l.iface.Index)
	if err != nil {
		return false, fmt.Errorf("interface %d: %w", l.iface.Index, err)
	}
	return linkUp(iface.Flags), nil
}

func linkUp(flags net.Flags) bool {
	return flags&net.FlagUp != 0 && flags&net.FlagRunning != 0
}

// Close closes the socket. A pending Run returns after its next read timeout.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := unix.Close(l.fd); err != nil {
		return &ethspi.LinkError{Op: "close", Link: l.iface.Name, Err: err}
	}
	return nil
}

func (l *Link) String() string {
	return l.iface.Name
}

func (l *Link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// promiscuousRequest is the membership that puts the interface into
// promiscuous mode for as long as the socket stays open
func promiscuousRequest(ifindex int) unix.PacketMreq {
	return unix.PacketMreq{Ifindex: int32(ifindex), Type: unix.PACKET_MR_PROMISC}
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

var _ ethernet.Transmitter = (*Link)(nil)
