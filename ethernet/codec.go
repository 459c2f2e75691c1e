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

// Package ethernet frames payloads into the fixed-layout link frame,
// validates inbound frames and relays link events to registered observers.
package ethernet

import (
	"fmt"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/internal/frame"
	"github.com/rs/zerolog"
)

// Transmitter hands an encoded frame to the link. Implementations must not
// retain frame after Transmit returns.
type Transmitter interface {
	Transmit(frame []byte) error
}

// Sink consumes what a link driver reads off the wire
type Sink interface {
	Receive(raw []byte) Verdict
	HandleEvent(ev Event)
}

// Codec builds outgoing frames and validates incoming ones.
//
// Send may be called from the application goroutine while Receive and
// HandleEvent run on the link driver goroutine.
type Codec struct {
	tx        Transmitter
	observers *Observers
	log       zerolog.Logger
	dst       MAC
	src       MAC
}

// NewCodec creates a codec transmitting through tx and notifying observers.
// A nil observers gets a fresh registry.
func NewCodec(tx Transmitter, observers *Observers, opts ...Option) (*Codec, error) {
	if observers == nil {
		observers = NewObservers()
	}
	c := &Codec{
		tx:        tx,
		observers: observers,
		dst:       Broadcast,
		log:       ethspi.ComponentLogger("ethernet"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observers returns the registry the codec notifies
func (c *Codec) Observers() *Observers {
	return c.observers
}

// InitFrame stamps the ethertype and the configured addresses on f
func (c *Codec) InitFrame(f *Frame) {
	f.Ethertype = Ethertype
	f.Dst = c.dst
	f.Src = c.src
}

// Send frames data and transmits it. Payloads longer than MaxDataLen are
// rejected, never truncated.
func (c *Codec) Send(data []byte) error {
	if len(data) > MaxDataLen {
		return fmt.Errorf("send %d bytes (max %d): %w", len(data), MaxDataLen, ethspi.ErrDataTooLarge)
	}
	var f Frame
	c.InitFrame(&f)
	f.DataLen = uint16(len(data))
	copy(f.Data[:], data)
	return c.SendFrame(&f)
}

// SendFrame transmits header and the first DataLen payload bytes of f
func (c *Codec) SendFrame(f *Frame) error {
	buf := frame.GetBuffer(MaxFrameSize)
	defer frame.PutBuffer(buf)

	n, err := f.MarshalTo(buf)
	if err != nil {
		return err
	}

	if err := c.tx.Transmit(buf[:n]); err != nil {
		c.log.Error().Err(err).Int("len", n).Msg("error occurred while sending frame")
		return ethspi.NewTransmitError(linkName(c.tx), err)
	}
	c.log.Debug().Int("len", n).Uint16("data_len", f.DataLen).Msg("frame sent")
	return nil
}

// Receive validates raw and, if it is a well-formed frame of ours, passes
// the source address and payload to the receive observer. raw is borrowed
// for the duration of the call. Rejected frames are logged and dropped.
func (c *Codec) Receive(raw []byte) Verdict {
	receiver := c.observers.currentReceiver()
	if receiver == nil {
		c.log.Warn().Int("len", len(raw)).Msg("frame received but no receive observer is attached")
		return VerdictNoObserver
	}

	if len(raw) < HeaderSize {
		c.log.Warn().Int("len", len(raw)).Int("min", HeaderSize).Msg("frame too short")
		return VerdictTooShort
	}
	if len(raw) > MaxFrameSize {
		c.log.Warn().Int("len", len(raw)).Int("max", MaxFrameSize).Msg("frame too long")
		return VerdictTooLong
	}

	hdr := parseHeader(raw)
	if hdr.Ethertype != Ethertype {
		c.log.Warn().
			Str("got", fmt.Sprintf("0x%04X", hdr.Ethertype)).
			Str("want", fmt.Sprintf("0x%04X", Ethertype)).
			Msg("unexpected frame ethertype")
		return VerdictBadEthertype
	}

	available := len(raw) - HeaderSize
	if int(hdr.DataLen) > available {
		c.log.Warn().
			Uint16("data_len", hdr.DataLen).
			Int("available", available).
			Msg("data longer than available frame length")
		return VerdictTruncated
	}

	receiver.ReceiveFrame(hdr.Src, raw[HeaderSize:HeaderSize+int(hdr.DataLen)])
	return VerdictDelivered
}

// HandleEvent relays link transitions to the link watcher synchronously.
// Transitions with no watcher attached are logged and dropped.
func (c *Codec) HandleEvent(ev Event) {
	switch ev {
	case EventConnected, EventDisconnected:
		up := ev == EventConnected
		if w := c.observers.currentWatcher(); w != nil {
			w.LinkChanged(up)
		} else {
			c.log.Warn().Stringer("event", ev).Msg("link state changed but no link observer is attached")
		}
		c.log.Info().Bool("up", up).Msg("link state changed")
	case EventStarted, EventStopped, EventGotIP:
		c.log.Info().Stringer("event", ev).Msg("link event")
	default:
		c.log.Info().Int("event", int(ev)).Msg("unhandled link event")
	}
}

func linkName(tx Transmitter) string {
	if s, ok := tx.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

var _ Sink = (*Codec)(nil)
