// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"net/url"
	"slices"
)

// AuthenticationInfo describes the credentials an agent sends with push notifications.
type AuthenticationInfo struct {
	// Schemes lists the supported schemes, e.g. Basic or Bearer.
	Schemes []string `json:"schemes"`
	// Credentials are optional scheme-specific credentials.
	Credentials string `json:"credentials,omitempty"`
}

// PushNotificationConfig is a webhook registration for out-of-band task updates.
type PushNotificationConfig struct {
	// ID is unique within the owning task.
	ID string `json:"id,omitempty"`
	// URL receives the notifications.
	URL string `json:"url"`
	// Token is echoed back in notifications so the receiver can validate them.
	Token string `json:"token,omitempty"`
	// Authentication describes how the agent authenticates to URL.
	Authentication *AuthenticationInfo `json:"authentication,omitempty"`
}

// Validate reports whether c is a usable webhook registration.
func (c *PushNotificationConfig) Validate() error {
	if c == nil {
		return NewValidationError("push_notification_config", "config cannot be nil")
	}
	if c.URL == "" {
		return NewValidationError("url", "url cannot be empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewValidationError("url", "url %q must be absolute", c.URL)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *PushNotificationConfig) Clone() *PushNotificationConfig {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Authentication != nil {
		auth := *c.Authentication
		auth.Schemes = slices.Clone(c.Authentication.Schemes)
		cp.Authentication = &auth
	}
	return &cp
}

// TaskPushNotificationConfig binds a [PushNotificationConfig] to its resource name
// tasks/{task_id}/pushNotificationConfigs/{config_id}.
type TaskPushNotificationConfig struct {
	Name                   string                  `json:"name"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig"`
}

// Clone returns a deep copy of c.
func (c *TaskPushNotificationConfig) Clone() *TaskPushNotificationConfig {
	if c == nil {
		return nil
	}
	return &TaskPushNotificationConfig{
		Name:                   c.Name,
		PushNotificationConfig: c.PushNotificationConfig.Clone(),
	}
}
