// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// SendMessageConfiguration tunes how the engine handles a sent message.
type SendMessageConfiguration struct {
	// AcceptedOutputModes lists the media types the caller accepts in replies.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	// PushNotification registers a webhook for the task created by the send.
	PushNotification *PushNotificationConfig `json:"pushNotification,omitempty"`
	// HistoryLength limits the history returned with the task. Zero means unlimited.
	HistoryLength int32 `json:"historyLength,omitempty"`
	// Blocking makes the send wait until the task is terminal or interrupted.
	Blocking bool `json:"blocking,omitempty"`
}

// SendMessageRequest carries a message for the agent. Used by message/send and message/stream.
type SendMessageRequest struct {
	Request       *Message                  `json:"request"`
	Configuration *SendMessageConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// GetTaskRequest names a task to read.
type GetTaskRequest struct {
	Name          string `json:"name"`
	HistoryLength int32  `json:"historyLength,omitempty"`
}

// CancelTaskRequest names a task to cancel.
type CancelTaskRequest struct {
	Name string `json:"name"`
}

// TaskSubscriptionRequest names a task to resubscribe to.
type TaskSubscriptionRequest struct {
	Name string `json:"name"`
}

// CreateTaskPushNotificationConfigRequest registers a webhook under Parent (tasks/{task_id}).
type CreateTaskPushNotificationConfigRequest struct {
	Parent   string                      `json:"parent"`
	ConfigID string                      `json:"configId,omitempty"`
	Config   *TaskPushNotificationConfig `json:"config"`
}

// GetTaskPushNotificationConfigRequest names a push notification config to read.
type GetTaskPushNotificationConfigRequest struct {
	Name string `json:"name"`
}

// DeleteTaskPushNotificationConfigRequest names a push notification config to delete.
type DeleteTaskPushNotificationConfigRequest struct {
	Name string `json:"name"`
}

// ListTaskPushNotificationConfigRequest pages through the configs of Parent (tasks/{task_id}).
type ListTaskPushNotificationConfigRequest struct {
	Parent    string `json:"parent"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

// ListTaskPushNotificationConfigResponse is one page of push notification configs.
type ListTaskPushNotificationConfigResponse struct {
	Configs       []*TaskPushNotificationConfig `json:"configs"`
	NextPageToken string                        `json:"nextPageToken,omitempty"`
}

// GetAgentCardRequest requests the agent card. It has no fields.
type GetAgentCardRequest struct{}
