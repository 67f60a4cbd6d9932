// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package config loads Instance/Transport defaults from a YAML file via
// viper, with pflag command-line overrides — the library itself takes no
// dependency on either; this is an opt-in layer for callers that want
// file-based configuration instead of constructing everything in code.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the top-level configuration document: a set of named
// instances, plus logging.
type Config struct {
	Instances []InstanceConfig `mapstructure:"instances"`
	Log       LogConfig        `mapstructure:"log"`
}

// LogConfig mirrors the level/file knobs every teacher-style ambient
// logging setup in this codebase exposes.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`
}

// InstanceConfig describes one modbus.Instance: its role, prototype,
// transport, and (for a slave) its persisted register store.
type InstanceConfig struct {
	Name        string             `mapstructure:"name"`
	Role        string             `mapstructure:"role"`      // "master" or "slave"
	Prototype   string             `mapstructure:"prototype"` // "rtu" or "tcp"
	SlaveAddr   byte               `mapstructure:"slave_addr"`
	Tcp         TcpConfig          `mapstructure:"tcp"`
	Serial      SerialConfig       `mapstructure:"serial"`
	Persistence PersistenceConfig  `mapstructure:"persistence"`
	AckTimeout  time.Duration      `mapstructure:"ack_timeout"`
	ByteTimeout time.Duration      `mapstructure:"byte_timeout"`
}

// TcpConfig describes a TCP transport endpoint: a dial address for a
// master, a listen address for a slave.
type TcpConfig struct {
	Address string `mapstructure:"address"`
}

// PersistenceConfig describes a slave's register-store backing, used with
// registerstore.OpenMmapStore when Type is "mmap".
type PersistenceConfig struct {
	Type string `mapstructure:"type"` // "memory" or "mmap"
	Path string `mapstructure:"path"` // file path for "mmap"
}

// SerialConfig describes an RTU transport's serial port. It mirrors
// transport.SerialConfig with the RS485 settings flattened into top-level
// fields; it has no counterpart of transport.SerialConfig.Timeout.
type SerialConfig struct {
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	Parity   string `mapstructure:"parity"`
	StopBits int    `mapstructure:"stop_bits"`

	RS485              bool          `mapstructure:"rs485"`
	DelayRtsBeforeSend time.Duration `mapstructure:"delay_rts_before_send"`
	DelayRtsAfterSend  time.Duration `mapstructure:"delay_rts_after_send"`
	RtsHighDuringSend  bool          `mapstructure:"rts_high_during_send"`
	RtsHighAfterSend   bool          `mapstructure:"rts_high_after_send"`
	RxDuringTx         bool          `mapstructure:"rx_during_tx"`
}

// BindFlags registers on fs the one command-line override this package
// understands, "--log-level", for callers that pass fs to LoadConfig.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level: debug, info, warn, error")
}

// LoadConfig loads configuration from configFile, falling back to the
// conventional search path when configFile is empty, and applies fs's
// bound flags (if any) as overrides.
func LoadConfig(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("modbuscore")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/modbuscore/")
		v.AddConfigPath("$HOME/.modbuscore")
		v.AddConfigPath(".")
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("instances", []InstanceConfig{})

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
		if f := fs.Lookup("log-level"); f != nil {
			if err := v.BindPFlag("log.level", f); err != nil {
				return nil, fmt.Errorf("config: bind flags: %w", err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	for i := range cfg.Instances {
		fixupSerial(&cfg.Instances[i].Serial)
		if cfg.Instances[i].AckTimeout == 0 {
			cfg.Instances[i].AckTimeout = 300 * time.Millisecond
		}
		if cfg.Instances[i].ByteTimeout == 0 {
			cfg.Instances[i].ByteTimeout = 32 * time.Millisecond
		}
	}

	return &cfg, nil
}

func fixupSerial(s *SerialConfig) {
	s.Parity = strings.ToUpper(s.Parity)
	if s.BaudRate == 0 {
		s.BaudRate = 9600
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
}
