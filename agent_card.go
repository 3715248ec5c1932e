// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-json-experiment/json"
)

// AgentCard is the self-describing manifest of an agent.
type AgentCard struct {
	Name                              string                    `json:"name"`
	Description                       string                    `json:"description"`
	URL                               string                    `json:"url"`
	PreferredTransport                string                    `json:"preferredTransport,omitempty"`
	AdditionalInterfaces              []AgentInterface          `json:"additionalInterfaces,omitempty"`
	Provider                          *AgentProvider            `json:"provider,omitempty"`
	Version                           string                    `json:"version"`
	ProtocolVersion                   string                    `json:"protocolVersion,omitempty"`
	DocumentationURL                  string                    `json:"documentationUrl,omitempty"`
	IconURL                           string                    `json:"iconUrl,omitempty"`
	Capabilities                      AgentCapabilities         `json:"capabilities"`
	SecuritySchemes                   map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	Security                          []SecurityRequirement     `json:"security,omitempty"`
	DefaultInputModes                 []string                  `json:"defaultInputModes,omitempty"`
	DefaultOutputModes                []string                  `json:"defaultOutputModes,omitempty"`
	Skills                            []AgentSkill              `json:"skills,omitempty"`
	SupportsAuthenticatedExtendedCard bool                      `json:"supportsAuthenticatedExtendedCard,omitempty"`
	Signatures                        []AgentCardSignature      `json:"signatures,omitempty"`
}

// Validate reports whether the card has the fields every agent card needs.
func (c *AgentCard) Validate() error {
	if c == nil {
		return NewValidationError("agent_card", "agent card cannot be nil")
	}
	if c.Name == "" {
		return NewValidationError("name", "agent name cannot be empty")
	}
	if c.URL == "" {
		return NewValidationError("url", "agent url cannot be empty")
	}
	for name, s := range c.SecuritySchemes {
		if s.Scheme == nil {
			return NewValidationError("security_schemes", "security scheme %q has no variant", name)
		}
	}
	return nil
}

// AcceptsInputMode reports whether the agent declares mediaType among its
// default input modes. An empty mode list accepts everything.
func (c *AgentCard) AcceptsInputMode(mediaType string) bool {
	return len(c.DefaultInputModes) == 0 || slices.Contains(c.DefaultInputModes, mediaType)
}

// Clone returns a copy of c whose slices can be modified independently.
func (c *AgentCard) Clone() *AgentCard {
	if c == nil {
		return nil
	}
	cp := *c
	cp.AdditionalInterfaces = slices.Clone(c.AdditionalInterfaces)
	cp.Security = slices.Clone(c.Security)
	cp.DefaultInputModes = slices.Clone(c.DefaultInputModes)
	cp.DefaultOutputModes = slices.Clone(c.DefaultOutputModes)
	cp.Skills = slices.Clone(c.Skills)
	cp.Signatures = slices.Clone(c.Signatures)
	cp.Capabilities.Extensions = slices.Clone(c.Capabilities.Extensions)
	return &cp
}

// AgentCapabilities lists the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming         bool             `json:"streaming,omitempty"`
	PushNotifications bool             `json:"pushNotifications,omitempty"`
	Extensions        []AgentExtension `json:"extensions,omitempty"`
}

// AgentExtension declares a protocol extension supported by an agent.
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentProvider identifies the organization operating an agent.
type AgentProvider struct {
	URL          string `json:"url"`
	Organization string `json:"organization"`
}

// AgentInterface is an additional URL and transport an agent is reachable on.
type AgentInterface struct {
	URL       string `json:"url"`
	Transport string `json:"transport"`
}

// AgentSkill describes one capability of an agent.
type AgentSkill struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Tags        []string              `json:"tags,omitempty"`
	Examples    []string              `json:"examples,omitempty"`
	InputModes  []string              `json:"inputModes,omitempty"`
	OutputModes []string              `json:"outputModes,omitempty"`
	Security    []SecurityRequirement `json:"security,omitempty"`
}

// AgentCardSignature is an RFC 7515 JSON Web Signature over an [AgentCard].
type AgentCardSignature struct {
	// Protected is the base64url-encoded protected JWS header.
	Protected string `json:"protected"`
	// Signature is the base64url-encoded signature.
	Signature string `json:"signature"`
	// Header holds unprotected header values.
	Header map[string]any `json:"header,omitempty"`
}

// StringList is a list of scope names.
type StringList struct {
	List []string `json:"list"`
}

// SecurityRequirement maps scheme names to the scopes they require.
type SecurityRequirement struct {
	Schemes map[string]StringList `json:"schemes"`
}

// SecuritySchemeVariant is one of the concrete security scheme kinds:
// [*APIKeySecurityScheme], [*HTTPAuthSecurityScheme], [*OAuth2SecurityScheme],
// [*OpenIDConnectSecurityScheme] or [*MutualTLSSecurityScheme].
type SecuritySchemeVariant interface {
	isSecurityScheme()
}

// SecurityScheme declares how callers authenticate to an agent. Exactly one variant is present.
type SecurityScheme struct {
	Scheme SecuritySchemeVariant
}

// APIKeySecurityScheme is an API key sent in a header, query parameter or cookie.
type APIKeySecurityScheme struct {
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`
	Name        string `json:"name"`
}

// HTTPAuthSecurityScheme is an HTTP authentication scheme such as Basic or Bearer.
type HTTPAuthSecurityScheme struct {
	Description  string `json:"description,omitempty"`
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

// OAuth2SecurityScheme is an OAuth 2.0 scheme.
type OAuth2SecurityScheme struct {
	Description       string     `json:"description,omitempty"`
	Flows             OAuthFlows `json:"flows"`
	OAuth2MetadataURL string     `json:"oauth2MetadataUrl,omitempty"`
}

// OpenIDConnectSecurityScheme is an OpenID Connect discovery based scheme.
type OpenIDConnectSecurityScheme struct {
	Description      string `json:"description,omitempty"`
	OpenIDConnectURL string `json:"openIdConnectUrl"`
}

// MutualTLSSecurityScheme is mutual TLS.
type MutualTLSSecurityScheme struct {
	Description string `json:"description,omitempty"`
}

func (*APIKeySecurityScheme) isSecurityScheme()        {}
func (*HTTPAuthSecurityScheme) isSecurityScheme()      {}
func (*OAuth2SecurityScheme) isSecurityScheme()        {}
func (*OpenIDConnectSecurityScheme) isSecurityScheme() {}
func (*MutualTLSSecurityScheme) isSecurityScheme()     {}

// OAuthFlow is one OAuth 2.0 flow description.
type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}

// OAuthFlows holds exactly one OAuth 2.0 flow.
type OAuthFlows struct {
	AuthorizationCode *OAuthFlow `json:"authorizationCode,omitzero"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitzero"`
	Implicit          *OAuthFlow `json:"implicit,omitzero"`
	Password          *OAuthFlow `json:"password,omitzero"`
}

type securitySchemeJSON struct {
	APIKey        *APIKeySecurityScheme        `json:"apiKeySecurityScheme,omitzero"`
	HTTPAuth      *HTTPAuthSecurityScheme      `json:"httpAuthSecurityScheme,omitzero"`
	OAuth2        *OAuth2SecurityScheme        `json:"oauth2SecurityScheme,omitzero"`
	OpenIDConnect *OpenIDConnectSecurityScheme `json:"openIdConnectSecurityScheme,omitzero"`
	MutualTLS     *MutualTLSSecurityScheme     `json:"mtlsSecurityScheme,omitzero"`
}

// MarshalJSON implements [json.Marshaler].
func (s SecurityScheme) MarshalJSON() ([]byte, error) {
	var w securitySchemeJSON
	switch v := s.Scheme.(type) {
	case *APIKeySecurityScheme:
		w.APIKey = v
	case *HTTPAuthSecurityScheme:
		w.HTTPAuth = v
	case *OAuth2SecurityScheme:
		w.OAuth2 = v
	case *OpenIDConnectSecurityScheme:
		w.OpenIDConnect = v
	case *MutualTLSSecurityScheme:
		w.MutualTLS = v
	default:
		return nil, fmt.Errorf("marshal security scheme: unknown variant %T", v)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *SecurityScheme) UnmarshalJSON(data []byte) error {
	var w securitySchemeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var found []SecuritySchemeVariant
	if w.APIKey != nil {
		found = append(found, w.APIKey)
	}
	if w.HTTPAuth != nil {
		found = append(found, w.HTTPAuth)
	}
	if w.OAuth2 != nil {
		found = append(found, w.OAuth2)
	}
	if w.OpenIDConnect != nil {
		found = append(found, w.OpenIDConnect)
	}
	if w.MutualTLS != nil {
		found = append(found, w.MutualTLS)
	}
	if len(found) != 1 {
		return errors.New("unmarshal security scheme: exactly one scheme must be set")
	}
	s.Scheme = found[0]
	return nil
}
