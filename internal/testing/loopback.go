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

// Package testing provides fakes shared by the package tests
package testing

import (
	"sync"

	"github.com/ZaparooProject/go-ethspi/ethernet"
)

// LoopbackTransmitter records every transmitted frame and optionally feeds it
// straight back into a sink, emulating a cable looped onto itself
type LoopbackTransmitter struct {
	Sink     ethernet.Sink
	Err      error
	frames   [][]byte
	verdicts []ethernet.Verdict
	mu       sync.Mutex
}

// NewLoopbackTransmitter creates a transmitter with no sink attached
func NewLoopbackTransmitter() *LoopbackTransmitter {
	return &LoopbackTransmitter{}
}

// Transmit copies frame, records it and loops it back when a sink is set
func (l *LoopbackTransmitter) Transmit(frame []byte) error {
	l.mu.Lock()
	if l.Err != nil {
		err := l.Err
		l.mu.Unlock()
		return err
	}
	cp := append([]byte(nil), frame...)
	l.frames = append(l.frames, cp)
	sink := l.Sink
	l.mu.Unlock()

	if sink != nil {
		v := sink.Receive(cp)
		l.mu.Lock()
		l.verdicts = append(l.verdicts, v)
		l.mu.Unlock()
	}
	return nil
}

// SetError makes subsequent transmissions fail with err
func (l *LoopbackTransmitter) SetError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Err = err
}

// Frames returns copies of all transmitted frames in order
func (l *LoopbackTransmitter) Frames() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.frames...)
}

// Verdicts returns the sink verdicts of looped-back frames
func (l *LoopbackTransmitter) Verdicts() []ethernet.Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ethernet.Verdict(nil), l.verdicts...)
}

func (*LoopbackTransmitter) String() string {
	return "loopback"
}
