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

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/bridge"
	"github.com/ZaparooProject/go-ethspi/config"
	"github.com/ZaparooProject/go-ethspi/ethernet"
	"github.com/ZaparooProject/go-ethspi/spimux"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const disconnectQuiesceMs = 250

// frameLink is a link driver as provided by link/rawsock and link/serial
type frameLink interface {
	ethernet.Transmitter
	Run(ctx context.Context, sink ethernet.Sink) error
	Close() error
	String() string
}

// pendingTransfer keeps the buffers of an issued transfer alive until the
// handle has been reclaimed
type pendingTransfer struct {
	handle spimux.Handle
	rx     []byte
	slave  uint8
}

// App holds everything the shell commands operate on
type App struct {
	codec   *ethernet.Codec
	manager *spimux.Manager
	link    frameLink
	bus     *spimux.QueuedBus
	client  paho.Client
	runErr  chan error
	log     zerolog.Logger
	pending map[int]*pendingTransfer
	nextID  int
	mu      sync.Mutex
	linkUp  bool
	observe bool
}

// NewApp wires a codec and a manager that are already open. The app
// attaches its own observers so link state is always tracked.
func NewApp(codec *ethernet.Codec, manager *spimux.Manager) *App {
	a := &App{
		codec:   codec,
		manager: manager,
		pending: make(map[int]*pendingTransfer),
		log:     ethspi.ComponentLogger("ethspictl"),
	}
	a.attach(codec.Observers())
	return a
}

// OpenApp opens the hardware described by cfg and starts the link driver
func OpenApp(ctx context.Context, cfg *config.Config) (*App, error) {
	demux, err := spimux.OpenDemux(cfg.SPI.A0, cfg.SPI.A1, cfg.SPI.A2)
	if err != nil {
		return nil, err
	}
	freq, err := cfg.SPI.ParsedFrequency()
	if err != nil {
		return nil, err
	}
	bus, err := spimux.OpenQueuedBus(cfg.SPI.Port, freq, cfg.SPI.SPIMode(),
		spimux.WithQueueDepth(cfg.SPI.QueueDepth),
		spimux.WithBusLogger(ethspi.ComponentLogger("spi")))
	if err != nil {
		return nil, err
	}

	opts := []spimux.Option{spimux.WithCapacity(cfg.SPI.Capacity)}
	if probe, probeErr := openProbe(cfg.SPI.IssueProbe); probeErr != nil {
		_ = bus.Close()
		return nil, probeErr
	} else if probe != nil {
		opts = append(opts, spimux.WithIssueProbe(probe))
	}
	if probe, probeErr := openProbe(cfg.SPI.PollProbe); probeErr != nil {
		_ = bus.Close()
		return nil, probeErr
	} else if probe != nil {
		opts = append(opts, spimux.WithPollProbe(probe))
	}
	manager, err := spimux.NewManager(bus, demux, opts...)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	src, dst, err := cfg.Ethernet.Addresses()
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	link, err := openLink(&cfg.Ethernet)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	codec, err := ethernet.NewCodec(link, nil,
		ethernet.WithSource(src),
		ethernet.WithDestination(dst),
		ethernet.WithLogger(ethspi.ComponentLogger("ethernet")))
	if err != nil {
		_ = link.Close()
		_ = bus.Close()
		return nil, err
	}
	app := NewApp(codec, manager)
	app.link = link
	app.bus = bus

	if cfg.MQTT.Broker != "" {
		if err := app.connectBroker(cfg.MQTT.Broker); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	app.runErr = make(chan error, 1)
	go func() {
		app.runErr <- link.Run(ctx, codec)
	}()
	app.log.Info().
		Str("link", link.String()).
		Str("src", src.String()).
		Str("dst", dst.String()).
		Str("spi", bus.String()).
		Msg("board ready")
	return app, nil
}

func openProbe(name string) (spimux.Line, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("probe pin %s not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("probe pin %s: %w", name, err)
	}
	return pin, nil
}

// connectBroker replaces the app observers with an MQTT bridge that also
// tracks link state for the status command
func (a *App) connectBroker(broker string) error {
	client, prefix, err := bridge.Connect(broker)
	if err != nil {
		return err
	}
	a.client = client
	b := bridge.New(client, prefix, a.codec)
	obs := a.codec.Observers()
	obs.AttachReceiver(ethernet.ReceiverFunc(func(src ethernet.MAC, payload []byte) {
		a.receiveFrame(src, payload)
		b.ReceiveFrame(src, payload)
	}))
	obs.AttachLinkWatcher(ethernet.LinkWatcherFunc(func(up bool) {
		a.linkChanged(up)
		b.LinkChanged(up)
	}))
	if err := b.Subscribe(client); err != nil {
		return err
	}
	a.log.Info().Str("prefix", prefix).Msg("mqtt bridge connected")
	return nil
}

func (a *App) attach(obs *ethernet.Observers) {
	obs.AttachReceiver(ethernet.ReceiverFunc(a.receiveFrame))
	obs.AttachLinkWatcher(ethernet.LinkWatcherFunc(a.linkChanged))
}

func (a *App) receiveFrame(src ethernet.MAC, payload []byte) {
	a.mu.Lock()
	observe := a.observe
	a.mu.Unlock()
	if observe {
		a.log.Info().Str("src", src.String()).Hex("data", payload).Msg("frame")
	}
}

func (a *App) linkChanged(up bool) {
	a.mu.Lock()
	a.linkUp = up
	a.mu.Unlock()
}

// LinkUp reports the last state seen by the link watcher
func (a *App) LinkUp() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.linkUp
}

// SetObserve toggles logging of received frames
func (a *App) SetObserve(on bool) {
	a.mu.Lock()
	a.observe = on
	a.mu.Unlock()
}

// Issue starts a transfer and returns the shell id used to poll it
func (a *App) Issue(slave uint8, tx []byte, rxLen int) (int, error) {
	length := len(tx)
	if rxLen > length {
		length = rxLen
	}
	if length > len(tx) {
		tx = append(tx, make([]byte, length-len(tx))...)
	}
	rx := make([]byte, length)
	h, err := a.manager.Issue(slave, tx, rx, length)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.pending[a.nextID] = &pendingTransfer{handle: h, rx: rx, slave: slave}
	return a.nextID, nil
}

// Poll checks transfer id once. The received bytes are returned once the
// transfer has finished, after which id is forgotten.
func (a *App) Poll(id int) (done bool, rx []byte, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[id]
	if !ok {
		return false, nil, fmt.Errorf("transfer %d: %w", id, ethspi.ErrInvalidHandle)
	}
	done, err = a.manager.PollIsFinished(&p.handle)
	if !done {
		return false, nil, err
	}
	delete(a.pending, id)
	return true, p.rx, err
}

// Pending returns the ids of transfers not yet reclaimed
func (a *App) Pending() map[int]uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[int]uint8, len(a.pending))
	for id, p := range a.pending {
		out[id] = p.slave
	}
	return out
}

// Wait waits up to timeout for the link driver to return
func (a *App) Wait(timeout time.Duration) error {
	if a.runErr == nil {
		return nil
	}
	select {
	case err := <-a.runErr:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("link driver did not stop: %w", ethspi.ErrTimeout)
	}
}

// Close releases the broker connection, the link and the bus
func (a *App) Close() error {
	var errs []error
	if a.client != nil {
		a.client.Disconnect(disconnectQuiesceMs)
	}
	if a.link != nil {
		if err := a.link.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
