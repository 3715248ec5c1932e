// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"

	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-engine"
)

// Option represents an option for configuring the [Server].
type Option func(*Server)

// WithAgentCard sets the public agent card, overriding the configured card file.
func WithAgentCard(card *a2a.AgentCard) Option {
	return func(s *Server) {
		s.card = card
	}
}

// WithExtendedCard sets the authenticated extended agent card, overriding the
// configured extended card file.
func WithExtendedCard(card *a2a.AgentCard) Option {
	return func(s *Server) {
		s.extendedCard = card
	}
}

// WithDB sets the database used by the task and push config stores regardless
// of the configured driver. The caller keeps ownership of db.
func WithDB(db *gorm.DB) Option {
	return func(s *Server) {
		s.db = db
	}
}

// WithLogger sets the [*slog.Logger] for the [Server] and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}
