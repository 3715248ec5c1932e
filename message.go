// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Message is one communication turn between a client and an agent.
//
// Messages are immutable once created; the engine stores copies.
type Message struct {
	// MessageID uniquely identifies the message. Set by the sender.
	MessageID string `json:"messageId"`
	// ContextID groups related tasks and messages into one conversation.
	ContextID string `json:"contextId,omitempty"`
	// TaskID is set when the message belongs to an existing task.
	TaskID string `json:"taskId,omitempty"`
	// Role identifies the sender.
	Role Role `json:"role"`
	// Content holds the ordered parts of the message.
	Content Parts `json:"content"`
	// Metadata is optional free-form data attached by the sender.
	Metadata map[string]any `json:"metadata,omitempty"`
	// Extensions lists the URIs of extensions relevant to the message.
	Extensions []string `json:"extensions,omitempty"`
}

// Validate reports whether m carries the fields every message needs.
func (m *Message) Validate() error {
	if m == nil {
		return NewValidationError("message", "message cannot be nil")
	}
	if m.MessageID == "" {
		return NewValidationError("message_id", "message ID cannot be empty")
	}
	if !m.Role.Valid() {
		return NewValidationError("role", "invalid message role %q", m.Role)
	}
	if err := m.Content.Validate(); err != nil {
		return NewValidationError("content", "%v", err)
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Content = m.Content.Clone()
	cp.Metadata = cloneMap(m.Metadata)
	cp.Extensions = slices.Clone(m.Extensions)
	return &cp
}

// NewAgentTextMessage returns an agent message holding a single text part.
func NewAgentTextMessage(text, contextID, taskID string) *Message {
	return NewAgentPartsMessage(Parts{NewTextPart(text)}, contextID, taskID)
}

// NewAgentPartsMessage returns an agent message holding parts.
func NewAgentPartsMessage(parts Parts, contextID, taskID string) *Message {
	return &Message{
		MessageID: uuid.NewString(),
		ContextID: contextID,
		TaskID:    taskID,
		Role:      RoleAgent,
		Content:   parts,
	}
}

// NewUserTextMessage returns a user message holding a single text part.
func NewUserTextMessage(text string) *Message {
	return &Message{
		MessageID: uuid.NewString(),
		Role:      RoleUser,
		Content:   Parts{NewTextPart(text)},
	}
}

// GetTextParts returns the text of every [TextPart] in parts.
func GetTextParts(parts Parts) []string {
	var texts []string
	for _, p := range parts {
		if tp, ok := p.(*TextPart); ok {
			texts = append(texts, tp.Text)
		}
	}
	return texts
}

// GetMessageText joins the text parts of m with delimiter.
func GetMessageText(m *Message, delimiter string) string {
	if m == nil {
		return ""
	}
	return strings.Join(GetTextParts(m.Content), delimiter)
}
