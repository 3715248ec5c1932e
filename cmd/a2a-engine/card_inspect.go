// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/server"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func (a *app) newCardValidateCmd() *cobra.Command {
	var strict, quiet bool
	cmd := &cobra.Command{
		Use:   "validate [card.json]",
		Short: "Validate an agent card file",
		Long: `Validate an agent card file.

Errors are missing required fields, malformed JSON and security schemes
without a variant. Warnings are fields a client will usually expect, such
as a description or at least one skill; --strict turns them into errors.

Exit codes: 0 valid, 2 invalid arguments, 3 file not found, 4 validation failed.`,
		Args: argsExit(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			path, err := cardPath(args, cfg.Card.File)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return readError(err)
			}

			out := cmd.OutOrStdout()
			if quiet {
				out = io.Discard
			}
			card, err := server.ParseCard(data)
			if err != nil {
				fmt.Fprintf(out, "Agent card validation failed\n  - %v\n", err)
				return withExit(exitValidationFailed, err)
			}

			warnings := cardWarnings(card)
			if strict && len(warnings) > 0 {
				fmt.Fprintln(out, "Agent card validation failed")
				for _, w := range warnings {
					fmt.Fprintf(out, "  - %s\n", w)
				}
				return withExit(exitValidationFailed, fmt.Errorf("%s: %d warning(s) in strict mode", path, len(warnings)))
			}

			fmt.Fprintln(out, "Agent card is valid")
			fmt.Fprintf(out, "Validated: %s\n", path)
			fmt.Fprintf(out, "Protocol Version: %s\n", card.ProtocolVersion)
			fmt.Fprintf(out, "Agent: %s v%s\n", card.Name, card.Version)
			fmt.Fprintf(out, "Skills: %d\n", len(card.Skills))
			if len(warnings) > 0 {
				fmt.Fprintln(out, "Warnings:")
				for _, w := range warnings {
					fmt.Fprintf(out, "  - %s\n", w)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress output, use the exit code only")
	return cmd
}

// cardWarnings lists fields of a valid card that clients usually rely on but are missing.
func cardWarnings(card *a2a.AgentCard) []string {
	var warnings []string
	if card.Description == "" {
		warnings = append(warnings, "description: should describe the agent")
	}
	if card.Version == "" {
		warnings = append(warnings, "version: should be set")
	}
	if card.ProtocolVersion == "" {
		warnings = append(warnings, "protocolVersion: should be set, current is "+a2a.ProtocolVersion)
	}
	if len(card.Skills) == 0 {
		warnings = append(warnings, "skills: agent declares no skills")
	}
	for i, skill := range card.Skills {
		if skill.ID == "" || skill.Name == "" {
			warnings = append(warnings, fmt.Sprintf("skills[%d]: id and name should be set", i))
		}
	}
	for _, req := range card.Security {
		for name := range req.Schemes {
			if _, ok := card.SecuritySchemes[name]; !ok {
				warnings = append(warnings, fmt.Sprintf("security: scheme %q is not declared in securitySchemes", name))
			}
		}
	}
	return warnings
}

func (a *app) newCardViewCmd() *cobra.Command {
	var skills, capabilities, security bool
	var output string
	cmd := &cobra.Command{
		Use:   "view [card.json]",
		Short: "Show the capabilities and skills of an agent card",
		Args:  argsExit(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			card, err := readCard(args, cfg.Card.File)
			if err != nil {
				return err
			}

			switch output {
			case outputJSON:
				return printJSON(cmd, card)
			case outputText:
			default:
				return withExit(exitInvalidArguments, fmt.Errorf("unknown output format %q, want %s or %s", output, outputText, outputJSON))
			}

			w := cmd.OutOrStdout()
			if capabilities {
				viewCapabilities(w, card)
				return nil
			}
			viewOverview(w, card)
			fmt.Fprintln(w)
			viewCapabilities(w, card)
			fmt.Fprintln(w)
			viewSkills(w, card, skills)
			if security {
				fmt.Fprintln(w)
				viewSecurity(w, card)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skills, "skills", "s", false, "show skill details")
	cmd.Flags().BoolVar(&capabilities, "capabilities", false, "show capabilities only")
	cmd.Flags().BoolVar(&security, "security", false, "show security configuration")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text or json)")
	return cmd
}

func viewOverview(w io.Writer, card *a2a.AgentCard) {
	fmt.Fprintf(w, "%s v%s\n", card.Name, card.Version)
	if card.Description != "" {
		fmt.Fprintln(w, card.Description)
	}
	fmt.Fprintf(w, "URL: %s\n", card.URL)
	if card.ProtocolVersion != "" {
		fmt.Fprintf(w, "Protocol Version: %s\n", card.ProtocolVersion)
	}
	if p := card.Provider; p != nil {
		fmt.Fprintf(w, "Provider: %s (%s)\n", p.Organization, p.URL)
	}
	if n := len(card.Signatures); n > 0 {
		fmt.Fprintf(w, "Signatures: %d\n", n)
	}
}

func viewCapabilities(w io.Writer, card *a2a.AgentCard) {
	fmt.Fprintln(w, "Capabilities:")
	fmt.Fprintf(w, "  Streaming: %s\n", yesNo(card.Capabilities.Streaming))
	fmt.Fprintf(w, "  Push notifications: %s\n", yesNo(card.Capabilities.PushNotifications))
	fmt.Fprintf(w, "  Extended card: %s\n", yesNo(card.SupportsAuthenticatedExtendedCard))
	for _, ext := range card.Capabilities.Extensions {
		if ext.Required {
			fmt.Fprintf(w, "  Extension: %s (required)\n", ext.URI)
		} else {
			fmt.Fprintf(w, "  Extension: %s\n", ext.URI)
		}
	}
	fmt.Fprintf(w, "  Input modes: %s\n", modes(card.DefaultInputModes))
	fmt.Fprintf(w, "  Output modes: %s\n", modes(card.DefaultOutputModes))
}

func viewSkills(w io.Writer, card *a2a.AgentCard, detailed bool) {
	fmt.Fprintf(w, "Skills (%d):\n", len(card.Skills))
	for _, skill := range card.Skills {
		fmt.Fprintf(w, "  - %s: %s\n", skill.ID, skill.Name)
		if !detailed {
			continue
		}
		if skill.Description != "" {
			fmt.Fprintf(w, "      %s\n", skill.Description)
		}
		if len(skill.Tags) > 0 {
			fmt.Fprintf(w, "      Tags: %s\n", strings.Join(skill.Tags, ", "))
		}
		for _, ex := range skill.Examples {
			fmt.Fprintf(w, "      Example: %s\n", ex)
		}
		if len(skill.InputModes) > 0 || len(skill.OutputModes) > 0 {
			fmt.Fprintf(w, "      Modes: %s -> %s\n", modes(skill.InputModes), modes(skill.OutputModes))
		}
	}
}

func viewSecurity(w io.Writer, card *a2a.AgentCard) {
	fmt.Fprintln(w, "Security:")
	if len(card.SecuritySchemes) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, name := range slices.Sorted(maps.Keys(card.SecuritySchemes)) {
		fmt.Fprintf(w, "  %s: %s\n", name, describeScheme(card.SecuritySchemes[name]))
	}
	for _, req := range card.Security {
		fmt.Fprintf(w, "  Requires: %s\n", strings.Join(slices.Sorted(maps.Keys(req.Schemes)), " + "))
	}
}

func describeScheme(s a2a.SecurityScheme) string {
	switch v := s.Scheme.(type) {
	case *a2a.APIKeySecurityScheme:
		return fmt.Sprintf("API key %q in %s", v.Name, v.Location)
	case *a2a.HTTPAuthSecurityScheme:
		if v.BearerFormat != "" {
			return fmt.Sprintf("HTTP %s (%s)", v.Scheme, v.BearerFormat)
		}
		return "HTTP " + v.Scheme
	case *a2a.OAuth2SecurityScheme:
		var flows []string
		if v.Flows.AuthorizationCode != nil {
			flows = append(flows, "authorizationCode")
		}
		if v.Flows.ClientCredentials != nil {
			flows = append(flows, "clientCredentials")
		}
		if v.Flows.Implicit != nil {
			flows = append(flows, "implicit")
		}
		if v.Flows.Password != nil {
			flows = append(flows, "password")
		}
		return fmt.Sprintf("OAuth 2.0 (%s)", strings.Join(flows, ", "))
	case *a2a.OpenIDConnectSecurityScheme:
		return "OpenID Connect " + v.OpenIDConnectURL
	case *a2a.MutualTLSSecurityScheme:
		return "mutual TLS"
	default:
		return "unknown"
	}
}

func modes(m []string) string {
	if len(m) == 0 {
		return "any"
	}
	return strings.Join(m, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
