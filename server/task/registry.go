// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/logging"
)

// Page size limits applied when the registry is built without options.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// PushConfigRegistry serves the push notification config operations on top of
// a [PushNotificationConfigStore]. Configs can only be attached to existing tasks.
type PushConfigRegistry struct {
	store           PushNotificationConfigStore
	tasks           TaskStore
	enabled         bool
	defaultPageSize int32
	maxPageSize     int32
	logger          *slog.Logger
}

// RegistryOption configures a [PushConfigRegistry].
type RegistryOption func(*PushConfigRegistry)

// WithPushEnabled turns push notification support on or off. It is on by default.
func WithPushEnabled(enabled bool) RegistryOption {
	return func(r *PushConfigRegistry) {
		r.enabled = enabled
	}
}

// WithPageSizes sets the page size used when a request has none and the largest accepted page size.
func WithPageSizes(defaultSize, maxSize int32) RegistryOption {
	return func(r *PushConfigRegistry) {
		r.defaultPageSize = defaultSize
		r.maxPageSize = maxSize
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *PushConfigRegistry) {
		r.logger = logger
	}
}

// NewPushConfigRegistry creates a new PushConfigRegistry.
func NewPushConfigRegistry(store PushNotificationConfigStore, tasks TaskStore, opts ...RegistryOption) *PushConfigRegistry {
	r := &PushConfigRegistry{
		store:           store,
		tasks:           tasks,
		enabled:         true,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Component(r.logger, "push-config-registry")
	return r
}

// Enabled reports whether push notifications are supported.
func (r *PushConfigRegistry) Enabled() bool {
	return r.enabled
}

// Create registers config under parent (tasks/{task_id}). An empty configID
// falls back to the ID inside config, then to a generated one.
func (r *PushConfigRegistry) Create(ctx context.Context, parent, configID string, config *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if !r.enabled {
		return nil, NewPushConfigError("create", parent, a2a.ErrPushNotificationNotSupported)
	}
	taskID, err := a2a.ParseTaskName(parent)
	if err != nil {
		return nil, err
	}
	if config == nil || config.PushNotificationConfig == nil {
		return nil, a2a.NewValidationError("config", "push notification config cannot be empty")
	}

	if _, err := r.tasks.Get(ctx, taskID); err != nil {
		if errors.Is(err, a2a.ErrTaskNotFound) {
			return nil, NewPushConfigError("create", parent, fmt.Errorf("%w: parent task %s does not exist", a2a.ErrInvalidRequest, taskID))
		}
		return nil, err
	}

	return r.save(ctx, taskID, configID, config.PushNotificationConfig)
}

// Register attaches config to the task taskID. It is used when a message is
// sent together with a push notification config.
func (r *PushConfigRegistry) Register(ctx context.Context, taskID string, config *a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if !r.enabled {
		return nil, NewPushConfigError("create", a2a.TaskName(taskID), a2a.ErrPushNotificationNotSupported)
	}
	return r.save(ctx, taskID, "", config)
}

func (r *PushConfigRegistry) save(ctx context.Context, taskID, configID string, config *a2a.PushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	cfg := config.Clone()
	switch {
	case configID != "":
		cfg.ID = configID
	case cfg.ID == "":
		cfg.ID = uuid.NewString()
	}
	name := a2a.PushConfigName(taskID, cfg.ID)
	if _, _, err := a2a.ParsePushConfigName(name); err != nil {
		return nil, err
	}

	entry, err := r.store.Save(ctx, taskID, cfg)
	if err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "push notification config saved", "name", name)
	return toTaskConfig(entry), nil
}

// Get returns the config named tasks/{task_id}/pushNotificationConfigs/{config_id}.
func (r *PushConfigRegistry) Get(ctx context.Context, name string) (*a2a.TaskPushNotificationConfig, error) {
	if !r.enabled {
		return nil, NewPushConfigError("get", name, a2a.ErrPushNotificationNotSupported)
	}
	taskID, configID, err := a2a.ParsePushConfigName(name)
	if err != nil {
		return nil, err
	}
	entry, err := r.store.Get(ctx, taskID, configID)
	if err != nil {
		return nil, err
	}
	return toTaskConfig(entry), nil
}

// Delete removes the named config.
func (r *PushConfigRegistry) Delete(ctx context.Context, name string) error {
	if !r.enabled {
		return NewPushConfigError("delete", name, a2a.ErrPushNotificationNotSupported)
	}
	taskID, configID, err := a2a.ParsePushConfigName(name)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, taskID, configID); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "push notification config deleted", "name", name)
	return nil
}

// List returns one page of the configs of parent in creation order.
//
// A zero pageSize selects the default page size and sizes above the maximum
// are clamped. The returned token is empty on the last page.
func (r *PushConfigRegistry) List(ctx context.Context, parent string, pageSize int32, pageToken string) (*a2a.ListTaskPushNotificationConfigResponse, error) {
	if !r.enabled {
		return nil, NewPushConfigError("list", parent, a2a.ErrPushNotificationNotSupported)
	}
	taskID, err := a2a.ParseTaskName(parent)
	if err != nil {
		return nil, err
	}

	switch {
	case pageSize < 0:
		return nil, NewPushConfigError("list", parent, fmt.Errorf("%w: page_size must not be negative", a2a.ErrInvalidParams))
	case pageSize == 0:
		pageSize = r.defaultPageSize
	case pageSize > r.maxPageSize:
		pageSize = r.maxPageSize
	}

	var after int64
	if pageToken != "" {
		after, err = decodePageToken(pageToken, parent)
		if err != nil {
			return nil, NewPushConfigError("list", parent, err)
		}
	}

	entries, err := r.store.List(ctx, taskID, after, int(pageSize)+1)
	if err != nil {
		return nil, err
	}

	resp := &a2a.ListTaskPushNotificationConfigResponse{
		Configs: make([]*a2a.TaskPushNotificationConfig, 0, min(len(entries), int(pageSize))),
	}
	if len(entries) > int(pageSize) {
		entries = entries[:pageSize]
		token, err := encodePageToken(parent, entries[len(entries)-1].Seq)
		if err != nil {
			return nil, NewPushConfigError("list", parent, err)
		}
		resp.NextPageToken = token
	}
	for _, e := range entries {
		resp.Configs = append(resp.Configs, toTaskConfig(e))
	}
	return resp, nil
}

func toTaskConfig(e *PushConfigEntry) *a2a.TaskPushNotificationConfig {
	return &a2a.TaskPushNotificationConfig{
		Name:                   a2a.PushConfigName(e.TaskID, e.Config.ID),
		PushNotificationConfig: e.Config,
	}
}

// Page tokens are the base64url encoding of a google.protobuf.Struct holding
// the parent name and the sequence number of the last config returned.
const (
	tokenParentField = "parent"
	tokenAfterField  = "after"
)

func encodePageToken(parent string, after int64) (string, error) {
	s, err := structpb.NewStruct(map[string]any{
		tokenParentField: parent,
		tokenAfterField:  float64(after),
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode page token: %w", a2a.ErrInternal, err)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("%w: encode page token: %w", a2a.ErrInternal, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodePageToken(token, parent string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed page token", a2a.ErrInvalidParams)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return 0, fmt.Errorf("%w: malformed page token", a2a.ErrInvalidParams)
	}
	fields := s.GetFields()
	if got := fields[tokenParentField].GetStringValue(); got != parent {
		return 0, fmt.Errorf("%w: page token was issued for %q, not %q", a2a.ErrInvalidParams, got, parent)
	}
	after, ok := fields[tokenAfterField].GetKind().(*structpb.Value_NumberValue)
	if !ok || after.NumberValue < 0 {
		return 0, fmt.Errorf("%w: malformed page token", a2a.ErrInvalidParams)
	}
	return int64(after.NumberValue), nil
}
