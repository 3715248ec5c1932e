// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the structured loggers used across the engine.
//
// Loggers are plain [*slog.Logger] values backed by a charmbracelet/log handler,
// so engine packages depend only on log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Config holds logger configuration.
type Config struct {
	Level        string // debug, info, warn, error
	Format       string // text, json, logfmt
	Prefix       string
	ReportCaller bool
	Output       io.Writer
}

// DefaultConfig returns an info-level text logger writing to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

// New returns a logger for cfg.
func New(cfg Config) (*slog.Logger, error) {
	level := charmlog.InfoLevel
	if cfg.Level != "" {
		l, err := charmlog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}

	var formatter charmlog.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = charmlog.TextFormatter
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          cfg.Prefix,
		ReportCaller:    cfg.ReportCaller,
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Component returns a child of l tagged with the component name.
// A nil l yields a discarding logger.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", name)
}
