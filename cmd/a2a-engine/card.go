// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/spf13/cobra"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/auth"
	"github.com/go-a2a/a2a-engine/server"
)

func (a *app) newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Validate, view, sign and verify agent cards",
	}
	cmd.AddCommand(
		a.newCardValidateCmd(),
		a.newCardViewCmd(),
		a.newCardSignCmd(),
		a.newCardVerifyCmd(),
	)
	return cmd
}

func (a *app) newCardSignCmd() *cobra.Command {
	var keyFile, keyID, alg string
	cmd := &cobra.Command{
		Use:   "sign [card.json]",
		Short: "Print the agent card with a new detached JWS signature appended",
		Long: `Sign an agent card with a PEM or JWK private key.

The signature covers the canonical JSON of the card without its signatures,
so existing signatures stay valid. The card defaults to card.file and the key
to card.signing_key_file from the configuration.`,
		Args: argsExit(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			card, err := readCard(args, cfg.Card.File)
			if err != nil {
				return err
			}
			key, err := readKey(cmp.Or(keyFile, cfg.Card.SigningKeyFile))
			if err != nil {
				return err
			}

			signer, err := auth.NewCardSigner(key, alg, keyID)
			if err != nil {
				return err
			}
			signed, err := signer.Sign(card)
			if err != nil {
				return err
			}
			logger.Debug("signed agent card", "agent", signed.Name, "signatures", len(signed.Signatures))
			return printJSON(cmd, signed)
		},
	}
	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "private key file (PEM or JWK)")
	cmd.Flags().StringVar(&keyID, "kid", "", "key id recorded in the protected header")
	cmd.Flags().StringVar(&alg, "alg", auth.DefaultSigningAlgorithm, "JWS signature algorithm")
	return cmd
}

func (a *app) newCardVerifyCmd() *cobra.Command {
	var keyFiles []string
	cmd := &cobra.Command{
		Use:   "verify [card.json]",
		Short: "Verify every signature of an agent card",
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
			if len(keyFiles) == 0 {
				return withExit(exitInvalidArguments, errors.New("at least one --key is required"))
			}
			keys := make([]jwk.Key, 0, len(keyFiles))
			for _, f := range keyFiles {
				key, err := readKey(f)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			if err := auth.VerifyCard(card, keys...); err != nil {
				return withExit(exitValidationFailed, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d signature(s) verified\n", card.Name, len(card.Signatures))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&keyFiles, "key", "k", nil, "public or private key file (PEM or JWK), repeatable")
	return cmd
}

func cardPath(args []string, fallback string) (string, error) {
	path := fallback
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", withExit(exitInvalidArguments, errors.New("no agent card given and card.file is not set"))
	}
	return path, nil
}

// readCard loads and validates the card named by args or fallback.
func readCard(args []string, fallback string) (*a2a.AgentCard, error) {
	path, err := cardPath(args, fallback)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(err)
	}
	card, err := server.ParseCard(data)
	if err != nil {
		return nil, withExit(exitValidationFailed, err)
	}
	return card, nil
}

func readError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return withExit(exitFileNotFound, err)
	}
	return err
}

func readKey(path string) (jwk.Key, error) {
	if path == "" {
		return nil, withExit(exitInvalidArguments, errors.New("no key given and card.signing_key_file is not set"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(fmt.Errorf("read key: %w", err))
	}
	return auth.ParseKey(data)
}
