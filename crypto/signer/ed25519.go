// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/luxfi/flo/ident"
)

type ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519Verifier
}

func newEd25519() (Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signer: generating ed25519 key: %w", err)
	}
	return &ed25519Signer{priv: priv, pub: ed25519Verifier(pub)}, nil
}

func (s *ed25519Signer) Kind() Kind     { return Ed25519 }
func (s *ed25519Signer) Public() Verifier { return s.pub }

func (s *ed25519Signer) Sign(msg []byte) (Signature, error) {
	return Signature{Kind: Ed25519, Bytes: ed25519.Sign(s.priv, msg)}, nil
}

type ed25519Verifier ed25519.PublicKey

func parseEd25519Verifier(pub []byte) (Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("signer: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	v := make(ed25519Verifier, ed25519.PublicKeySize)
	copy(v, pub)
	return v, nil
}

func (v ed25519Verifier) Kind() Kind        { return Ed25519 }
func (v ed25519Verifier) Bytes() []byte     { return []byte(v) }
func (v ed25519Verifier) ID() ident.ID256   { return VerifierID(Ed25519, v) }

func (v ed25519Verifier) Verify(msg []byte, sig Signature) bool {
	if sig.Kind != Ed25519 {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(v), msg, sig.Bytes)
}
