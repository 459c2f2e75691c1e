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

// Package config loads the board description used by ethspictl: which
// link carries frames, which SPI port and address pins form the
// multiplexed bus, and where to mirror traffic.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Link kinds
const (
	LinkRawSocket = "rawsock"
	LinkSerial    = "serial"
)

// Config is the board configuration
type Config struct {
	Ethernet EthernetConfig `yaml:"ethernet" toml:"ethernet"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	SPI      SPIConfig      `yaml:"spi" toml:"spi"`
}

// EthernetConfig selects the link driver and frame addresses
type EthernetConfig struct {
	Link        string `yaml:"link" toml:"link"`
	Interface   string `yaml:"interface" toml:"interface"`
	SerialPort  string `yaml:"serial_port" toml:"serial_port"`
	Source      string `yaml:"src_mac" toml:"src_mac"`
	Destination string `yaml:"dst_mac" toml:"dst_mac"`
	Baud        int    `yaml:"baud" toml:"baud"`
}

// SPIConfig describes the multiplexed bus
type SPIConfig struct {
	Port       string `yaml:"port" toml:"port"`
	Frequency  string `yaml:"frequency" toml:"frequency"`
	A0         string `yaml:"a0" toml:"a0"`
	A1         string `yaml:"a1" toml:"a1"`
	A2         string `yaml:"a2" toml:"a2"`
	IssueProbe string `yaml:"issue_probe" toml:"issue_probe"`
	PollProbe  string `yaml:"poll_probe" toml:"poll_probe"`
	Mode       int    `yaml:"mode" toml:"mode"`
	QueueDepth int    `yaml:"queue_depth" toml:"queue_depth"`
	Capacity   int    `yaml:"capacity" toml:"capacity"`
}

// MQTTConfig enables the broker bridge when Broker is set
type MQTTConfig struct {
	Broker string `yaml:"broker" toml:"broker"`
}

// LogConfig controls the package logger
type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Console bool   `yaml:"console" toml:"console"`
}

// Default returns a configuration for a raw socket on eth0 and the first
// SPI port registered with periph
func Default() *Config {
	return &Config{
		Ethernet: EthernetConfig{
			Link:        LinkRawSocket,
			Interface:   "eth0",
			Baud:        921600,
			Destination: "ff:ff:ff:ff:ff:ff",
		},
		SPI: SPIConfig{
			Frequency:  "10MHz",
			QueueDepth: 10,
			Capacity:   16,
		},
		Log: LogConfig{Level: "info", Console: true},
	}
}

// Load reads path, choosing the format from its extension, fills defaults
// and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}
