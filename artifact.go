// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"slices"

	"github.com/google/uuid"
)

// Artifact is a deliverable produced by a task, distinct from conversational messages.
type Artifact struct {
	// ArtifactID is unique within the owning task.
	ArtifactID string `json:"artifactId"`
	// Name is an optional human readable name.
	Name string `json:"name,omitempty"`
	// Description is an optional human readable description.
	Description string `json:"description,omitempty"`
	// Parts holds the content of the artifact.
	Parts Parts `json:"parts"`
	// Metadata is optional free-form data.
	Metadata map[string]any `json:"metadata,omitempty"`
	// Extensions lists the URIs of extensions relevant to the artifact.
	Extensions []string `json:"extensions,omitempty"`
}

// Validate reports whether a is well formed.
func (a *Artifact) Validate() error {
	if a == nil {
		return NewValidationError("artifact", "artifact cannot be nil")
	}
	if a.ArtifactID == "" {
		return NewValidationError("artifact_id", "artifact ID cannot be empty")
	}
	if err := a.Parts.Validate(); err != nil {
		return NewValidationError("parts", "%v", err)
	}
	return nil
}

// Clone returns a deep copy of a.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Parts = a.Parts.Clone()
	cp.Metadata = cloneMap(a.Metadata)
	cp.Extensions = slices.Clone(a.Extensions)
	return &cp
}

// NewTextArtifact returns an artifact with a generated ID holding a single text part.
func NewTextArtifact(name, text, description string) *Artifact {
	return &Artifact{
		ArtifactID:  uuid.NewString(),
		Name:        name,
		Description: description,
		Parts:       Parts{NewTextPart(text)},
	}
}

// NewDataArtifact returns an artifact with a generated ID holding a single data part.
func NewDataArtifact(name string, data map[string]any, description string) *Artifact {
	return &Artifact{
		ArtifactID:  uuid.NewString(),
		Name:        name,
		Description: description,
		Parts:       Parts{NewDataPart(data)},
	}
}
