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
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/go-ethspi/internal/retry"
	"github.com/abiosoft/ishell"
)

const (
	defaultWaitTimeout = time.Second
	waitInterval       = time.Millisecond
)

// NewShell builds the command shell over app
func NewShell(app *App) *ishell.Shell {
	sh := ishell.New()
	for _, cmd := range commands(app) {
		sh.AddCmd(cmd)
	}
	return sh
}

func commands(app *App) []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name:     "send",
			Help:     "send <hex>: transmit one frame",
			LongHelp: "Transmits the hex encoded payload as one frame to the configured destination.",
			Func: func(c *ishell.Context) {
				report(c, cmdSend(app, c.Args))
			},
		},
		{
			Name:     "spi",
			Help:     "spi <slave> <hex> [rxlen]: issue a transfer",
			LongHelp: "Issues a transfer to slave 0-7 and prints the id to poll. The transfer length is the larger of the payload and rxlen.",
			Func: func(c *ishell.Context) {
				id, err := cmdSPI(app, c.Args)
				if err != nil {
					report(c, err)
					return
				}
				c.Printf("transfer %d issued\n", id)
			},
		},
		{
			Name: "poll",
			Help: "poll <id>: check a transfer once",
			Func: func(c *ishell.Context) {
				id, err := parseID(c.Args)
				if err != nil {
					report(c, err)
					return
				}
				done, rx, err := app.Poll(id)
				printResult(c, c.Args[0], done, rx, err)
			},
		},
		{
			Name: "wait",
			Help: "wait <id> [timeout]: poll a transfer until it finishes",
			Func: func(c *ishell.Context) {
				rx, err := cmdWait(app, c.Args)
				if rx == nil {
					report(c, err)
					return
				}
				printResult(c, c.Args[0], true, rx, err)
			},
		},
		{
			Name: "pending",
			Help: "list transfers that have not been reclaimed",
			Func: func(c *ishell.Context) {
				pending := app.Pending()
				ids := make([]int, 0, len(pending))
				for id := range pending {
					ids = append(ids, id)
				}
				sort.Ints(ids)
				for _, id := range ids {
					c.Printf("%d\tslave %d\n", id, pending[id])
				}
				c.Printf("%d pending, %d slots in flight\n", len(ids), app.manager.InFlight())
			},
		},
		{
			Name:    "status",
			Aliases: []string{"link"},
			Help:    "show link state",
			Func: func(c *ishell.Context) {
				state := "down"
				if app.LinkUp() {
					state = "up"
				}
				c.Println("link " + state)
			},
		},
		{
			Name: "observe",
			Help: "observe on|off: log received frames",
			Func: func(c *ishell.Context) {
				on, err := parseSwitch(c.Args)
				if err != nil {
					report(c, err)
					return
				}
				app.SetObserve(on)
			},
		},
	}
}

func report(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
	}
}

func printResult(c *ishell.Context, id string, done bool, rx []byte, err error) {
	switch {
	case !done && err != nil:
		c.Err(err)
	case !done:
		c.Printf("transfer %s pending\n", id)
	case err != nil:
		c.Printf("transfer %s failed: %v\n", id, err)
	default:
		c.Printf("transfer %s done: %s\n", id, hex.EncodeToString(rx))
	}
}

func cmdSend(app *App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: send <hex>")
	}
	payload, err := parseHex(args[0])
	if err != nil {
		return err
	}
	return app.codec.Send(payload)
}

func cmdSPI(app *App, args []string) (int, error) {
	if len(args) < 2 || len(args) > 3 {
		return 0, errors.New("usage: spi <slave> <hex> [rxlen]")
	}
	slave, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid slave %q: %w", args[0], err)
	}
	tx, err := parseHex(args[1])
	if err != nil {
		return 0, err
	}
	rxLen := 0
	if len(args) == 3 {
		if rxLen, err = strconv.Atoi(args[2]); err != nil || rxLen < 0 {
			return 0, fmt.Errorf("invalid rxlen %q", args[2])
		}
	}
	return app.Issue(uint8(slave), tx, rxLen)
}

// cmdWait polls until the transfer finishes. A finished transfer that
// failed returns its received buffer along with the failure.
func cmdWait(app *App, args []string) ([]byte, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errors.New("usage: wait <id> [timeout]")
	}
	id, err := parseID(args[:1])
	if err != nil {
		return nil, err
	}
	timeout := defaultWaitTimeout
	if len(args) == 2 {
		if timeout, err = time.ParseDuration(args[1]); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", args[1], err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var transferErr error
	rx, err := retry.Poll(ctx, waitInterval, func() ([]byte, bool, error) {
		done, rx, pollErr := app.Poll(id)
		if done {
			transferErr = pollErr
			return rx, false, nil
		}
		return nil, pollErr == nil, pollErr
	})
	if err != nil {
		return nil, err
	}
	return rx, transferErr
}

func parseID(args []string) (int, error) {
	if len(args) < 1 {
		return 0, errors.New("missing transfer id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid transfer id %q", args[0])
	}
	return id, nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ":", ""), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

func parseSwitch(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: observe on|off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", args[0])
	}
}
