// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"google.golang.org/protobuf/types/known/structpb"
)

// Part is one element of the content of a [Message] or an [Artifact].
//
// Part is a closed sum type: the only implementations are [TextPart], [FilePart] and [DataPart].
type Part interface {
	// MIMEType reports the media type used for content negotiation against an agent's input and output modes.
	MIMEType() string

	// Validate reports whether the part is well formed.
	Validate() error

	isPart()
}

// TextPart is a plain-text part.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

var _ Part = (*TextPart)(nil)

func (*TextPart) isPart() {}

// MIMEType implements [Part].
func (*TextPart) MIMEType() string { return MediaTypeText }

// Validate implements [Part].
func (*TextPart) Validate() error { return nil }

// File is the payload of a [FilePart]: either a [FileURI] or [FileBytes].
type File interface {
	isFile()
}

// FileURI references file content that the receiver fetches itself.
type FileURI string

func (FileURI) isFile() {}

// FileBytes carries file content inline.
type FileBytes []byte

func (FileBytes) isFile() {}

// FilePart is a file part, carried inline or by reference.
type FilePart struct {
	File      File
	MediaType string
	Name      string
	Metadata  map[string]any
}

var _ Part = (*FilePart)(nil)

func (*FilePart) isPart() {}

// MIMEType implements [Part].
func (p *FilePart) MIMEType() string {
	if p.MediaType == "" {
		return "application/octet-stream"
	}
	return p.MediaType
}

// Validate implements [Part].
func (p *FilePart) Validate() error {
	switch f := p.File.(type) {
	case FileURI:
		if f == "" {
			return errors.New("file part: empty uri")
		}
	case FileBytes:
		if f == nil {
			return errors.New("file part: nil bytes")
		}
	case nil:
		return errors.New("file part: no file content")
	default:
		return fmt.Errorf("file part: unknown file variant %T", f)
	}
	return nil
}

// DataPart is a structured JSON object part.
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

var _ Part = (*DataPart)(nil)

func (*DataPart) isPart() {}

// MIMEType implements [Part].
func (*DataPart) MIMEType() string { return MediaTypeJSON }

// Validate implements [Part].
//
// The payload must be representable as a google.protobuf.Struct so that both transports can carry it.
func (p *DataPart) Validate() error {
	if p.Data == nil {
		return errors.New("data part: nil data")
	}
	if _, err := structpb.NewStruct(p.Data); err != nil {
		return fmt.Errorf("data part: %w", err)
	}
	return nil
}

// NewTextPart returns a [TextPart] holding text.
func NewTextPart(text string) *TextPart {
	return &TextPart{Text: text}
}

// NewDataPart returns a [DataPart] holding data.
func NewDataPart(data map[string]any) *DataPart {
	return &DataPart{Data: data}
}

// NewFileURIPart returns a [FilePart] referencing uri.
func NewFileURIPart(uri, mediaType string) *FilePart {
	return &FilePart{File: FileURI(uri), MediaType: mediaType}
}

// Wire representation. Exactly one of text, file and data is present.

type filePartJSON struct {
	FileWithURI   string `json:"fileWithUri,omitempty"`
	FileWithBytes []byte `json:"fileWithBytes,omitzero"`
	MimeType      string `json:"mimeType,omitempty"`
	Name          string `json:"name,omitempty"`
}

type dataPartJSON struct {
	Data map[string]any `json:"data"`
}

type partJSON struct {
	Text     *string        `json:"text,omitzero"`
	File     *filePartJSON  `json:"file,omitzero"`
	Data     *dataPartJSON  `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON implements [json.Marshaler].
func (p *TextPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(partJSON{Text: &p.Text, Metadata: p.Metadata})
}

// MarshalJSON implements [json.Marshaler].
func (p *FilePart) MarshalJSON() ([]byte, error) {
	fp := &filePartJSON{MimeType: p.MediaType, Name: p.Name}
	switch f := p.File.(type) {
	case FileURI:
		fp.FileWithURI = string(f)
	case FileBytes:
		fp.FileWithBytes = []byte(f)
		if fp.FileWithBytes == nil {
			fp.FileWithBytes = []byte{}
		}
	default:
		return nil, fmt.Errorf("marshal file part: unknown file variant %T", f)
	}
	return json.Marshal(partJSON{File: fp, Metadata: p.Metadata})
}

// MarshalJSON implements [json.Marshaler].
func (p *DataPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(partJSON{Data: &dataPartJSON{Data: p.Data}, Metadata: p.Metadata})
}

// UnmarshalPart decodes a single wire-format part.
func UnmarshalPart(data []byte) (Part, error) {
	var raw partJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal part: %w", err)
	}

	n := 0
	for _, set := range []bool{raw.Text != nil, raw.File != nil, raw.Data != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("unmarshal part: exactly one of text, file or data must be set, got %d", n)
	}

	switch {
	case raw.Text != nil:
		return &TextPart{Text: *raw.Text, Metadata: raw.Metadata}, nil
	case raw.Data != nil:
		return &DataPart{Data: raw.Data.Data, Metadata: raw.Metadata}, nil
	}

	fp := &FilePart{MediaType: raw.File.MimeType, Name: raw.File.Name, Metadata: raw.Metadata}
	switch {
	case raw.File.FileWithURI != "" && raw.File.FileWithBytes != nil:
		return nil, errors.New("unmarshal part: file part has both fileWithUri and fileWithBytes")
	case raw.File.FileWithURI != "":
		fp.File = FileURI(raw.File.FileWithURI)
	case raw.File.FileWithBytes != nil:
		fp.File = FileBytes(raw.File.FileWithBytes)
	default:
		return nil, errors.New("unmarshal part: file part has no content")
	}
	return fp, nil
}

// Parts is an ordered list of [Part] values with wire-format JSON support.
type Parts []Part

// UnmarshalJSON implements [json.Unmarshaler].
func (ps *Parts) UnmarshalJSON(data []byte) error {
	var raws []jsontext.Value
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("unmarshal parts: %w", err)
	}
	out := make(Parts, 0, len(raws))
	for i, raw := range raws {
		p, err := UnmarshalPart(raw)
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

// Validate validates every part.
func (ps Parts) Validate() error {
	for i, p := range ps {
		if p == nil {
			return fmt.Errorf("part %d is nil", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of ps.
func (ps Parts) Clone() Parts {
	if ps == nil {
		return nil
	}
	out := make(Parts, len(ps))
	for i, p := range ps {
		out[i] = clonePart(p)
	}
	return out
}

func clonePart(p Part) Part {
	switch p := p.(type) {
	case *TextPart:
		return &TextPart{Text: p.Text, Metadata: cloneMap(p.Metadata)}
	case *DataPart:
		return &DataPart{Data: cloneMap(p.Data), Metadata: cloneMap(p.Metadata)}
	case *FilePart:
		cp := *p
		cp.Metadata = cloneMap(p.Metadata)
		if b, ok := p.File.(FileBytes); ok && b != nil {
			cp.File = FileBytes(append([]byte{}, b...))
		}
		return &cp
	default:
		return p
	}
}

// cloneMap deep copies JSON-shaped values.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
