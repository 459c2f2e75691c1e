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

// Package serial carries frames over a serial line to a host-side bridge.
// Each frame is preceded by its length as a 2-byte big-endian prefix.
package serial

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/ZaparooProject/go-ethspi/internal/frame"
	"github.com/ZaparooProject/go-ethspi/internal/retry"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

const (
	prefixSize          = 2
	readTimeout         = 100 * time.Millisecond
	defaultLinkInterval = 250 * time.Millisecond
)

// Port is the part of serial.Port the link uses
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
}

// Link is a framed serial connection. The bridge signals link up by
// asserting DSR.
type Link struct {
	port     Port
	log      zerolog.Logger
	name     string
	interval time.Duration
	writeMu  sync.Mutex
	closeMu  sync.Mutex
	closed   bool
}

// Open opens the serial device at baud, 8N1, and raises DTR
func Open(name string, baud int) (*Link, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, &ethspi.LinkError{Op: "open", Link: name, Err: err}
	}
	if err := p.SetDTR(true); err != nil {
		_ = p.Close()
		return nil, &ethspi.LinkError{Op: "set DTR", Link: name, Err: err}
	}
	return New(name, p)
}

// OpenWithRetry retries Open while the device is busy or not yet present,
// as happens right after a USB adapter is plugged in
func OpenWithRetry(name string, baud, attempts int, delay time.Duration) (*Link, error) {
	return retry.WithRetry(retry.Config{
		Description: "open " + name,
		MaxRetries:  attempts - 1,
		RetryDelay:  delay,
	}, func() (*Link, bool, error) {
		l, err := Open(name, baud)
		if err == nil {
			return l, false, nil
		}
		var portErr *serial.PortError
		if errors.As(err, &portErr) {
			switch portErr.Code() {
			case serial.PortBusy, serial.PortNotFound:
				return nil, true, nil
			default:
			}
		}
		return nil, false, err
	})
}

// New wraps an already open port
func New(name string, p Port) (*Link, error) {
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, &ethspi.LinkError{Op: "set read timeout", Link: name, Err: err}
	}
	return &Link{
		port:     p,
		name:     name,
		interval: defaultLinkInterval,
		log:      ethspi.ComponentLogger("serial").With().Str("link", name).Logger(),
	}, nil
}

// Transmit implements ethernet.Transmitter
func (l *Link) Transmit(b []byte) error {
	if len(b) > frame.MaxFrameSize {
		return fmt.Errorf("frame of %d bytes: %w", len(b), ethspi.ErrDataTooLarge)
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	out := make([]byte, prefixSize+len(b))
	binary.BigEndian.PutUint16(out, uint16(len(b)))
	copy(out[prefixSize:], b)
	if _, err := l.port.Write(out); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Run decodes frames into sink and reports DSR transitions as link events
// until ctx is done or the port is closed
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

	dec := NewDecoder(&ctxReader{ctx: ctx, r: l.port})
	for {
		raw, err := dec.Next()
		switch {
		case err == nil:
			sink.Receive(raw)
		case ctx.Err() != nil, l.isClosed():
			return nil
		default:
			return &ethspi.LinkError{Op: "receive", Link: l.name, Err: err}
		}
	}
}

func (l *Link) watch(ctx context.Context, sink ethernet.Sink) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	known := false
	var up bool
	for {
		bits, err := l.port.GetModemStatusBits()
		if err != nil {
			l.log.Debug().Err(err).Msg("modem status read failed")
		} else if !known || bits.DSR != up {
			known, up = true, bits.DSR
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

// Close closes the port
func (l *Link) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.port.Close(); err != nil {
		return &ethspi.LinkError{Op: "close", Link: l.name, Err: err}
	}
	return nil
}

func (l *Link) String() string {
	return l.name
}

func (l *Link) isClosed() bool {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	return l.closed
}

// ctxReader turns read timeouts (0, nil) into context checks
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

var _ ethernet.Transmitter = (*Link)(nil)
