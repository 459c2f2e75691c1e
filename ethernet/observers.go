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

package ethernet

import "sync"

// Receiver is notified of every accepted inbound frame. payload aliases the
// driver receive buffer and must not be retained after the call returns.
type Receiver interface {
	ReceiveFrame(src MAC, payload []byte)
}

// ReceiverFunc is func type of Receiver
type ReceiverFunc func(src MAC, payload []byte)

// ReceiveFrame implements Receiver
func (f ReceiverFunc) ReceiveFrame(src MAC, payload []byte) {
	f(src, payload)
}

// LinkWatcher is notified when the link goes up or down
type LinkWatcher interface {
	LinkChanged(up bool)
}

// LinkWatcherFunc is func type of LinkWatcher
type LinkWatcherFunc func(up bool)

// LinkChanged implements LinkWatcher
func (f LinkWatcherFunc) LinkChanged(up bool) {
	f(up)
}

// Observers holds at most one Receiver and one LinkWatcher. Attaching
// replaces the previous observer of the same kind; detaching an empty slot
// is a no-op. Events arriving while a slot is empty are dropped, never queued.
type Observers struct {
	receiver Receiver
	watcher  LinkWatcher
	mu       sync.RWMutex
}

// NewObservers creates an empty registry
func NewObservers() *Observers {
	return &Observers{}
}

// AttachReceiver installs r as the receive observer
func (o *Observers) AttachReceiver(r Receiver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.receiver = r
}

// DetachReceiver clears the receive observer
func (o *Observers) DetachReceiver() {
	o.AttachReceiver(nil)
}

// AttachLinkWatcher installs w as the link-state observer
func (o *Observers) AttachLinkWatcher(w LinkWatcher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.watcher = w
}

// DetachLinkWatcher clears the link-state observer
func (o *Observers) DetachLinkWatcher() {
	o.AttachLinkWatcher(nil)
}

func (o *Observers) currentReceiver() Receiver {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.receiver
}

func (o *Observers) currentWatcher() LinkWatcher {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.watcher
}
