// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the engine configuration from a file, A2A_ environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by [Load].
// store.dsn is read from A2A_STORE_DSN.
const EnvPrefix = "A2A"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the effective engine configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store" json:"store"`
	Stream StreamConfig `mapstructure:"stream" json:"stream"`
	Send   SendConfig   `mapstructure:"send" json:"send"`
	Push   PushConfig   `mapstructure:"push" json:"push"`
	Log    LogConfig    `mapstructure:"log" json:"log"`
	Card   CardConfig   `mapstructure:"card" json:"card"`
}

// StoreConfig selects the task and push config storage.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn,omitempty"`
}

// StreamConfig tunes stream fan-out.
type StreamConfig struct {
	// BufferSize is the per-subscriber queue length before the oldest event is dropped.
	BufferSize int `mapstructure:"buffer_size" json:"bufferSize"`
}

// SendConfig tunes message/send.
type SendConfig struct {
	BlockingTimeout time.Duration `mapstructure:"blocking_timeout" json:"blockingTimeout,format:units"`
}

// PushConfig tunes the push notification config registry.
type PushConfig struct {
	Enabled         bool  `mapstructure:"enabled" json:"enabled"`
	DefaultPageSize int32 `mapstructure:"default_page_size" json:"defaultPageSize"`
	MaxPageSize     int32 `mapstructure:"max_page_size" json:"maxPageSize"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// CardConfig points at the agent card files.
type CardConfig struct {
	File           string `mapstructure:"file" json:"file,omitempty"`
	ExtendedFile   string `mapstructure:"extended_file" json:"extendedFile,omitempty"`
	SigningKeyFile string `mapstructure:"signing_key_file" json:"signingKeyFile,omitempty"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("stream.buffer_size", 64)
	v.SetDefault("send.blocking_timeout", 60*time.Second)
	v.SetDefault("push.enabled", true)
	v.SetDefault("push.default_page_size", 50)
	v.SetDefault("push.max_page_size", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("card.file", "")
	v.SetDefault("card.extended_file", "")
	v.SetDefault("card.signing_key_file", "")
}

// New returns a viper instance with defaults and environment binding set up.
// When file is not empty it is read as the config file.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	return v, nil
}

// Load reads the configuration from file (optional), the environment and defaults.
func Load(file string) (*Config, error) {
	v, err := New(file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting of c.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite, postgres", c.Store.Driver))
	}
	if c.Stream.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("stream.buffer_size must be positive, got %d", c.Stream.BufferSize))
	}
	if c.Send.BlockingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("send.blocking_timeout must be positive, got %s", c.Send.BlockingTimeout))
	}
	if c.Push.DefaultPageSize <= 0 || c.Push.MaxPageSize <= 0 {
		errs = append(errs, errors.New("push page sizes must be positive"))
	} else if c.Push.DefaultPageSize > c.Push.MaxPageSize {
		errs = append(errs, fmt.Errorf("push.default_page_size %d exceeds push.max_page_size %d", c.Push.DefaultPageSize, c.Push.MaxPageSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
