// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"

	a2a "github.com/go-a2a/a2a-engine"
)

// DefaultSigningAlgorithm is used when no algorithm is given to [NewCardSigner].
const DefaultSigningAlgorithm = "ES256"

var (
	// ErrCardUnsigned is returned when verifying a card that carries no signatures.
	ErrCardUnsigned = errors.New("agent card is not signed")

	// ErrCardSignature is returned when a card signature does not verify.
	ErrCardSignature = errors.New("invalid agent card signature")
)

// CardPayload returns the bytes covered by a card signature: the
// deterministic JSON encoding of card without its signatures.
func CardPayload(card *a2a.AgentCard) ([]byte, error) {
	if card == nil {
		return nil, errors.New("auth: agent card cannot be nil")
	}
	unsigned := card.Clone()
	unsigned.Signatures = nil
	data, err := json.Marshal(unsigned, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("auth: encode agent card: %w", err)
	}
	return data, nil
}

// ParseKey parses a PEM encoded key or a JWK.
func ParseKey(data []byte) (jwk.Key, error) {
	var opts []jwk.ParseOption
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		opts = append(opts, jwk.WithPEM(true))
	}
	key, err := jwk.ParseKey(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: parse key: %w", err)
	}
	return key, nil
}

// CardSigner adds detached JWS signatures to agent cards.
type CardSigner struct {
	key   jwk.Key
	alg   jwa.SignatureAlgorithm
	keyID string
}

// NewCardSigner returns a signer using the private key and the JWS algorithm
// alg, [DefaultSigningAlgorithm] when empty. A non-empty keyID is recorded in
// the protected header.
func NewCardSigner(key jwk.Key, alg, keyID string) (*CardSigner, error) {
	if key == nil {
		return nil, errors.New("auth: signing key cannot be nil")
	}
	sa, err := signatureAlgorithm(cmp.Or(alg, DefaultSigningAlgorithm))
	if err != nil {
		return nil, err
	}
	return &CardSigner{key: key, alg: sa, keyID: keyID}, nil
}

// Sign returns a copy of card with a new signature appended to the existing ones.
func (s *CardSigner) Sign(card *a2a.AgentCard) (*a2a.AgentCard, error) {
	payload, err := CardPayload(card)
	if err != nil {
		return nil, err
	}

	hdrs := jws.NewHeaders()
	if s.keyID != "" {
		if err := hdrs.Set(jws.KeyIDKey, s.keyID); err != nil {
			return nil, fmt.Errorf("auth: set key id: %w", err)
		}
	}
	compact, err := jws.Sign(nil,
		jws.WithKey(s.alg, s.key, jws.WithProtectedHeaders(hdrs)),
		jws.WithDetachedPayload(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: sign agent card: %w", err)
	}

	// A detached compact serialization is "protected..signature".
	segs := strings.Split(string(compact), ".")
	if len(segs) != 3 || segs[1] != "" {
		return nil, fmt.Errorf("auth: unexpected detached JWS %q", compact)
	}

	signed := card.Clone()
	signed.Signatures = append(signed.Signatures, a2a.AgentCardSignature{
		Protected: segs[0],
		Signature: segs[2],
	})
	return signed, nil
}

// VerifyCard checks that every signature of card verifies against one of keys.
// Private keys are reduced to their public part.
func VerifyCard(card *a2a.AgentCard, keys ...jwk.Key) error {
	if card == nil || len(card.Signatures) == 0 {
		return ErrCardUnsigned
	}
	if len(keys) == 0 {
		return errors.New("auth: no verification keys")
	}
	payload, err := CardPayload(card)
	if err != nil {
		return err
	}

	pubs := make([]jwk.Key, 0, len(keys))
	for _, k := range keys {
		pub, err := jwk.PublicKeyOf(k)
		if err != nil {
			return fmt.Errorf("auth: public key: %w", err)
		}
		pubs = append(pubs, pub)
	}

	for i, sig := range card.Signatures {
		if err := verifySignature(sig, payload, pubs); err != nil {
			return fmt.Errorf("%w: signature %d: %w", ErrCardSignature, i, err)
		}
	}
	return nil
}

type protectedHeader struct {
	Alg   string `json:"alg"`
	KeyID string `json:"kid,omitempty"`
}

func verifySignature(sig a2a.AgentCardSignature, payload []byte, keys []jwk.Key) error {
	raw, err := base64.RawURLEncoding.DecodeString(sig.Protected)
	if err != nil {
		return fmt.Errorf("decode protected header: %w", err)
	}
	var hdr protectedHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return fmt.Errorf("decode protected header: %w", err)
	}
	alg, err := signatureAlgorithm(hdr.Alg)
	if err != nil {
		return err
	}

	compact := []byte(sig.Protected + ".." + sig.Signature)
	var lastErr error
	for _, key := range keys {
		if _, err := jws.Verify(compact, jws.WithKey(alg, key), jws.WithDetachedPayload(payload)); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func signatureAlgorithm(name string) (jwa.SignatureAlgorithm, error) {
	alg, ok := jwa.LookupSignatureAlgorithm(name)
	if !ok || alg == jwa.NoSignature() {
		return alg, fmt.Errorf("auth: unsupported signature algorithm %q", name)
	}
	return alg, nil
}
