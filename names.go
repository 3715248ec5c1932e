// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"strings"
)

const (
	taskCollection       = "tasks"
	pushConfigCollection = "pushNotificationConfigs"
)

// TaskName returns the resource name tasks/{taskID}.
func TaskName(taskID string) string {
	return taskCollection + "/" + taskID
}

// PushConfigName returns the resource name tasks/{taskID}/pushNotificationConfigs/{configID}.
func PushConfigName(taskID, configID string) string {
	return TaskName(taskID) + "/" + pushConfigCollection + "/" + configID
}

// ParseTaskName extracts the task ID from a tasks/{task_id} resource name.
func ParseTaskName(name string) (string, error) {
	segs := strings.Split(name, "/")
	if len(segs) != 2 || segs[0] != taskCollection || !validSegment(segs[1]) {
		return "", &NameError{Name: name, Pattern: "tasks/{task_id}"}
	}
	return segs[1], nil
}

// ParsePushConfigName extracts the task and config IDs from a
// tasks/{task_id}/pushNotificationConfigs/{config_id} resource name.
func ParsePushConfigName(name string) (taskID, configID string, err error) {
	segs := strings.Split(name, "/")
	if len(segs) != 4 || segs[0] != taskCollection || segs[2] != pushConfigCollection ||
		!validSegment(segs[1]) || !validSegment(segs[3]) {
		return "", "", &NameError{Name: name, Pattern: "tasks/{task_id}/pushNotificationConfigs/{config_id}"}
	}
	return segs[1], segs[3], nil
}

func validSegment(s string) bool {
	return s != "" && strings.TrimSpace(s) == s
}
