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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-ethspi"
	"github.com/ZaparooProject/go-ethspi/config"
	"github.com/rs/zerolog"
	"periph.io/x/host/v3"
)

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	configPath := flag.String("config", "board.yaml", "Board configuration file (.yaml, .yml or .toml)")
	evalOnly := flag.Bool("e", false, "Run the commands given as arguments and exit, no interactive shell")
	verbose := flag.Bool("verbose", false, "Enable debug logging regardless of the configured level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	setupLogging(cfg.Log, *verbose)
	log := ethspi.ComponentLogger("ethspictl")

	if _, err := host.Init(); err != nil {
		log.Error().Err(err).Msg("failed to initialize periph host")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	app, err := OpenApp(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open hardware")
		return 1
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("close failed")
		}
	}()

	sh := NewShell(app)
	if *evalOnly {
		for _, line := range flag.Args() {
			if err := sh.Process(strings.Fields(line)...); err != nil {
				log.Error().Err(err).Str("command", line).Msg("command failed")
				return 1
			}
		}
		return 0
	}

	go func() {
		<-ctx.Done()
		sh.Close()
	}()
	sh.Run()
	cancel()

	if err := app.Wait(time.Second); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("link stopped with error")
	}
	return 0
}

func setupLogging(cfg config.LogConfig, verbose bool) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if !cfg.Console {
		ethspi.SetLogOutput(os.Stderr, level)
		return
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	ethspi.SetLogger(zerolog.New(output).Level(level).With().Timestamp().Logger())
}
