// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-engine"
)

// PushConfigEntry is a stored push notification config together with its
// task and its position in creation order.
type PushConfigEntry struct {
	Seq    int64
	TaskID string
	Config *a2a.PushNotificationConfig
}

// PushNotificationConfigStore defines the interface for storing push
// notification configs keyed by (task ID, config ID).
type PushNotificationConfigStore interface {
	// Save creates or replaces the config with ID config.ID under taskID.
	// A replaced config keeps its position in creation order.
	Save(ctx context.Context, taskID string, config *a2a.PushNotificationConfig) (*PushConfigEntry, error)

	// Get retrieves one config.
	// Returns a2a.PushConfigNotFoundError if the config doesn't exist.
	Get(ctx context.Context, taskID, configID string) (*PushConfigEntry, error)

	// List returns at most limit configs of taskID created after afterSeq, in creation order.
	List(ctx context.Context, taskID string, afterSeq int64, limit int) ([]*PushConfigEntry, error)

	// Delete removes one config.
	// Returns a2a.PushConfigNotFoundError if the config doesn't exist.
	Delete(ctx context.Context, taskID, configID string) error

	// DeleteAll removes every config of taskID.
	DeleteAll(ctx context.Context, taskID string) error

	// Initialize prepares the storage for use.
	Initialize(ctx context.Context) error

	// Close cleanly shuts down the storage.
	Close(ctx context.Context) error
}

type pushConfigKey struct {
	taskID   string
	configID string
}

// InMemoryPushNotificationConfigStore is an in-memory implementation of PushNotificationConfigStore.
// Configuration data is lost when the process stops.
type InMemoryPushNotificationConfigStore struct {
	mu      sync.RWMutex
	seq     int64
	configs map[pushConfigKey]*PushConfigEntry
}

var _ PushNotificationConfigStore = (*InMemoryPushNotificationConfigStore)(nil)

// NewInMemoryPushNotificationConfigStore creates a new in-memory push notification config store.
func NewInMemoryPushNotificationConfigStore() *InMemoryPushNotificationConfigStore {
	return &InMemoryPushNotificationConfigStore{
		configs: make(map[pushConfigKey]*PushConfigEntry),
	}
}

// Save creates or replaces a config.
func (s *InMemoryPushNotificationConfigStore) Save(ctx context.Context, taskID string, config *a2a.PushNotificationConfig) (*PushConfigEntry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pushConfigKey{taskID: taskID, configID: config.ID}
	entry, exists := s.configs[key]
	if !exists {
		s.seq++
		entry = &PushConfigEntry{Seq: s.seq, TaskID: taskID}
		s.configs[key] = entry
	}
	entry.Config = config.Clone()
	return entry.clone(), nil
}

// Get retrieves one config.
func (s *InMemoryPushNotificationConfigStore) Get(ctx context.Context, taskID, configID string) (*PushConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.configs[pushConfigKey{taskID: taskID, configID: configID}]
	if !exists {
		return nil, &a2a.PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
	}
	return entry.clone(), nil
}

// List returns configs of taskID in creation order.
func (s *InMemoryPushNotificationConfigStore) List(ctx context.Context, taskID string, afterSeq int64, limit int) ([]*PushConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*PushConfigEntry
	for key, entry := range s.configs {
		if key.taskID == taskID && entry.Seq > afterSeq {
			entries = append(entries, entry.clone())
		}
	}
	slices.SortFunc(entries, func(a, b *PushConfigEntry) int { return cmp.Compare(a.Seq, b.Seq) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes one config.
func (s *InMemoryPushNotificationConfigStore) Delete(ctx context.Context, taskID, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pushConfigKey{taskID: taskID, configID: configID}
	if _, exists := s.configs[key]; !exists {
		return &a2a.PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
	}
	delete(s.configs, key)
	return nil
}

// DeleteAll removes every config of taskID.
func (s *InMemoryPushNotificationConfigStore) DeleteAll(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.configs {
		if key.taskID == taskID {
			delete(s.configs, key)
		}
	}
	return nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryPushNotificationConfigStore) Initialize(ctx context.Context) error {
	return nil
}

// Close drops every stored config.
func (s *InMemoryPushNotificationConfigStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs = make(map[pushConfigKey]*PushConfigEntry)
	return nil
}

// GetConfigCount returns the number of configurations stored.
func (s *InMemoryPushNotificationConfigStore) GetConfigCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.configs)
}

func (e *PushConfigEntry) clone() *PushConfigEntry {
	cp := *e
	cp.Config = e.Config.Clone()
	return &cp
}

// DatabasePushNotificationConfigStore is a database implementation of
// PushNotificationConfigStore using GORM.
type DatabasePushNotificationConfigStore struct {
	db          *gorm.DB
	createTable bool
}

var _ PushNotificationConfigStore = (*DatabasePushNotificationConfigStore)(nil)

// NewDatabasePushNotificationConfigStore creates a new DatabasePushNotificationConfigStore.
func NewDatabasePushNotificationConfigStore(db *gorm.DB, createTable bool) (*DatabasePushNotificationConfigStore, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	return &DatabasePushNotificationConfigStore{
		db:          db,
		createTable: createTable,
	}, nil
}

// Save creates or replaces a config.
func (s *DatabasePushNotificationConfigStore) Save(ctx context.Context, taskID string, config *a2a.PushNotificationConfig) (*PushConfigEntry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var model PushConfigModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("task_id = ? AND config_id = ?", taskID, config.ID).First(&model).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			model = PushConfigModel{TaskID: taskID, ConfigID: config.ID}
		case err != nil:
			return err
		}
		model.URL = config.URL
		model.Token = config.Token
		model.Authentication = JSONColumn[*a2a.AuthenticationInfo]{V: config.Authentication}
		return tx.Save(&model).Error
	})
	if err != nil {
		return nil, NewPushConfigError("save", a2a.PushConfigName(taskID, config.ID), err)
	}
	return model.toEntry(), nil
}

// Get retrieves one config.
func (s *DatabasePushNotificationConfigStore) Get(ctx context.Context, taskID, configID string) (*PushConfigEntry, error) {
	var model PushConfigModel
	err := s.db.WithContext(ctx).Where("task_id = ? AND config_id = ?", taskID, configID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &a2a.PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
		}
		return nil, NewPushConfigError("get", a2a.PushConfigName(taskID, configID), err)
	}
	return model.toEntry(), nil
}

// List returns configs of taskID in creation order.
func (s *DatabasePushNotificationConfigStore) List(ctx context.Context, taskID string, afterSeq int64, limit int) ([]*PushConfigEntry, error) {
	db := s.db.WithContext(ctx).Where("task_id = ? AND seq > ?", taskID, afterSeq).Order("seq")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var models []PushConfigModel
	if err := db.Find(&models).Error; err != nil {
		return nil, NewPushConfigError("list", a2a.TaskName(taskID), err)
	}

	entries := make([]*PushConfigEntry, len(models))
	for i := range models {
		entries[i] = models[i].toEntry()
	}
	return entries, nil
}

// Delete removes one config.
func (s *DatabasePushNotificationConfigStore) Delete(ctx context.Context, taskID, configID string) error {
	result := s.db.WithContext(ctx).Where("task_id = ? AND config_id = ?", taskID, configID).Delete(&PushConfigModel{})
	if result.Error != nil {
		return NewPushConfigError("delete", a2a.PushConfigName(taskID, configID), result.Error)
	}
	if result.RowsAffected == 0 {
		return &a2a.PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
	}
	return nil
}

// DeleteAll removes every config of taskID.
func (s *DatabasePushNotificationConfigStore) DeleteAll(ctx context.Context, taskID string) error {
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&PushConfigModel{}).Error; err != nil {
		return NewPushConfigError("delete_all", a2a.TaskName(taskID), err)
	}
	return nil
}

// Initialize creates the push config table when the store was configured to.
func (s *DatabasePushNotificationConfigStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&PushConfigModel{}); err != nil {
		return NewPushConfigError("initialize", "", err)
	}
	return nil
}

// Close is a no-op: the connection pool belongs to whoever opened the *gorm.DB.
func (s *DatabasePushNotificationConfigStore) Close(ctx context.Context) error {
	return nil
}
