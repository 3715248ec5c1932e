// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package a2a

// Method is a JSON-RPC method name of the A2A protocol.
type Method string

// A2A JSON-RPC method names.
const (
	MethodMessageSend                       Method = "message/send"
	MethodMessageStream                     Method = "message/stream"
	MethodTasksGet                          Method = "tasks/get"
	MethodTasksCancel                       Method = "tasks/cancel"
	MethodTasksResubscribe                  Method = "tasks/resubscribe"
	MethodTasksPushNotificationConfigGet    Method = "tasks/pushNotificationConfig/get"
	MethodTasksPushNotificationConfigList   Method = "tasks/pushNotificationConfig/list"
	MethodTasksPushNotificationConfigCreate Method = "tasks/pushNotificationConfig/create"
	MethodTasksPushNotificationConfigDelete Method = "tasks/pushNotificationConfig/delete"
	MethodAgentGetAuthenticatedExtendedCard Method = "agent/getAuthenticatedExtendedCard"
)

// IsStreaming reports whether m replies with a stream of responses.
func (m Method) IsStreaming() bool {
	return m == MethodMessageStream || m == MethodTasksResubscribe
}

// Media types used for content negotiation of the built-in part kinds.
const (
	MediaTypeText = "text/plain"
	MediaTypeJSON = "application/json"
)
