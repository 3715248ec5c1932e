// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server assembles the task engine from a [config.Config]: task and
// push config storage, the stream hub, the task manager, the push config
// registry and the JSON-RPC and gRPC-style request handlers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/config"
	"github.com/go-a2a/a2a-engine/internal/logging"
	"github.com/go-a2a/a2a-engine/server/agent_execution"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/handler"
	"github.com/go-a2a/a2a-engine/server/task"
)

// Server owns the engine components built from a configuration.
type Server struct {
	cfg          *config.Config
	card         *a2a.AgentCard
	extendedCard *a2a.AgentCard
	logger       *slog.Logger

	db     *gorm.DB
	ownsDB bool

	tasks       task.TaskStore
	pushConfigs task.PushNotificationConfigStore
	hub         *event.Hub
	manager     *task.Manager
	registry    *task.PushConfigRegistry
	handler     *handler.DefaultRequestHandler
	jsonrpc     *handler.JSONRPCHandler
	grpc        *handler.GRPCHandler
}

// New builds a [Server] running executor for every accepted message.
//
// The agent card comes from [WithAgentCard] or, failing that, from
// cfg.Card.File. SQL drivers open their own database unless [WithDB] supplies
// one; the schema is migrated before New returns.
func New(ctx context.Context, cfg *config.Config, executor agent_execution.AgentExecutor, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	if err := s.loadCards(); err != nil {
		return nil, err
	}
	if err := s.openStores(ctx); err != nil {
		return nil, err
	}

	s.hub = event.NewHub(
		event.WithBufferSize(cfg.Stream.BufferSize),
		event.WithLogger(logging.Component(s.logger, "hub")),
	)
	s.manager = task.NewManager(s.tasks, s.hub,
		task.WithPushConfigStore(s.pushConfigs),
		task.WithManagerLogger(logging.Component(s.logger, "manager")),
	)
	s.registry = task.NewPushConfigRegistry(s.pushConfigs, s.tasks,
		task.WithPushEnabled(cfg.Push.Enabled && s.card.Capabilities.PushNotifications),
		task.WithPageSizes(cfg.Push.DefaultPageSize, cfg.Push.MaxPageSize),
		task.WithRegistryLogger(logging.Component(s.logger, "registry")),
	)

	hopts := []handler.Option{
		handler.WithPushConfigRegistry(s.registry),
		handler.WithBlockingTimeout(cfg.Send.BlockingTimeout),
		handler.WithLogger(logging.Component(s.logger, "handler")),
	}
	if s.extendedCard != nil {
		hopts = append(hopts, handler.WithExtendedCard(s.extendedCard))
	}
	h, err := handler.NewDefaultRequestHandler(s.card, executor, s.manager, hopts...)
	if err != nil {
		return nil, errors.Join(err, s.closeStores(ctx))
	}
	s.handler = h
	s.jsonrpc = handler.NewJSONRPCHandler(h, handler.WithJSONRPCLogger(logging.Component(s.logger, "jsonrpc")))
	s.grpc = handler.NewGRPCHandler(h, handler.WithGRPCLogger(logging.Component(s.logger, "grpc")))

	s.logger.InfoContext(ctx, "engine ready",
		slog.String("agent", s.card.Name),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("streaming", s.card.Capabilities.Streaming),
		slog.Bool("push", s.registry.Enabled()),
	)
	return s, nil
}

func (s *Server) loadCards() error {
	if s.card == nil {
		if s.cfg.Card.File == "" {
			return errors.New("server: agent card is required")
		}
		card, err := LoadCard(s.cfg.Card.File)
		if err != nil {
			return err
		}
		s.card = card
	}
	if s.extendedCard == nil && s.cfg.Card.ExtendedFile != "" {
		card, err := LoadCard(s.cfg.Card.ExtendedFile)
		if err != nil {
			return err
		}
		s.extendedCard = card
	}
	return nil
}

func (s *Server) openStores(ctx context.Context) error {
	if s.db == nil && s.cfg.Store.Driver == config.DriverMemory {
		s.tasks = task.NewInMemoryTaskStore()
		s.pushConfigs = task.NewInMemoryPushNotificationConfigStore()
		return nil
	}

	if s.db == nil {
		db, err := OpenDatabase(s.cfg.Store)
		if err != nil {
			return err
		}
		s.db = db
		s.ownsDB = true
	}

	tasks, pushConfigs, err := databaseStores(s.db)
	if err == nil {
		err = initialize(ctx, tasks, pushConfigs)
	}
	if err != nil {
		return errors.Join(err, s.closeDB())
	}
	s.tasks = tasks
	s.pushConfigs = pushConfigs
	return nil
}

// Card returns the public agent card.
func (s *Server) Card() *a2a.AgentCard {
	return s.card.Clone()
}

// Manager returns the task manager.
func (s *Server) Manager() *task.Manager { return s.manager }

// Registry returns the push notification config registry.
func (s *Server) Registry() *task.PushConfigRegistry { return s.registry }

// Handler returns the transport-neutral request handler.
func (s *Server) Handler() *handler.DefaultRequestHandler { return s.handler }

// JSONRPC returns the JSON-RPC 2.0 router.
func (s *Server) JSONRPC() *handler.JSONRPCHandler { return s.jsonrpc }

// GRPC returns the gRPC-style router.
func (s *Server) GRPC() *handler.GRPCHandler { return s.grpc }

// Close cancels running executions, waiting for them until ctx is done, and
// releases the stores. A database supplied through [WithDB] stays open.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if err := s.handler.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server: shutdown executions: %w", err))
	}
	if err := s.closeStores(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) closeStores(ctx context.Context) error {
	var errs []error
	if s.tasks != nil {
		errs = append(errs, s.tasks.Close(ctx))
	}
	if s.pushConfigs != nil {
		errs = append(errs, s.pushConfigs.Close(ctx))
	}
	errs = append(errs, s.closeDB())
	return errors.Join(errs...)
}

func (s *Server) closeDB() error {
	if !s.ownsDB || s.db == nil {
		return nil
	}
	s.ownsDB = false
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("server: database handle: %w", err)
	}
	return sqlDB.Close()
}
