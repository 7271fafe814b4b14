// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/luxfi/flo/ident"
)

func newMLDSA(kind Kind) (Signer, error) {
	switch kind {
	case MLDSA44:
		pub, priv, err := mldsa44.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("signer: generating ml-dsa-44 key: %w", err)
		}
		return &mldsa44Signer{priv: priv, pub: mldsa44Verifier{pk: pub}}, nil
	case MLDSA65:
		pub, priv, err := mldsa65.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("signer: generating ml-dsa-65 key: %w", err)
		}
		return &mldsa65Signer{priv: priv, pub: mldsa65Verifier{pk: pub}}, nil
	case MLDSA87:
		pub, priv, err := mldsa87.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("signer: generating ml-dsa-87 key: %w", err)
		}
		return &mldsa87Signer{priv: priv, pub: mldsa87Verifier{pk: pub}}, nil
	default:
		return nil, fmt.Errorf("signer: unsupported ml-dsa kind %d", kind)
	}
}

func parseMLDSAVerifier(kind Kind, pub []byte) (Verifier, error) {
	switch kind {
	case MLDSA44:
		var pk mldsa44.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, fmt.Errorf("signer: parsing ml-dsa-44 public key: %w", err)
		}
		return mldsa44Verifier{pk: &pk}, nil
	case MLDSA65:
		var pk mldsa65.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, fmt.Errorf("signer: parsing ml-dsa-65 public key: %w", err)
		}
		return mldsa65Verifier{pk: &pk}, nil
	case MLDSA87:
		var pk mldsa87.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, fmt.Errorf("signer: parsing ml-dsa-87 public key: %w", err)
		}
		return mldsa87Verifier{pk: &pk}, nil
	default:
		return nil, fmt.Errorf("signer: unsupported ml-dsa kind %d", kind)
	}
}

// --- ML-DSA-44 ---

type mldsa44Signer struct {
	priv *mldsa44.PrivateKey
	pub  mldsa44Verifier
}

func (s *mldsa44Signer) Kind() Kind       { return MLDSA44 }
func (s *mldsa44Signer) Public() Verifier { return s.pub }
func (s *mldsa44Signer) Sign(msg []byte) (Signature, error) {
	sig := make([]byte, mldsa44.SignatureSize)
	if err := mldsa44.SignTo(s.priv, msg, nil, false, sig); err != nil {
		return Signature{}, fmt.Errorf("signer: ml-dsa-44 sign: %w", err)
	}
	return Signature{Kind: MLDSA44, Bytes: sig}, nil
}

type mldsa44Verifier struct{ pk *mldsa44.PublicKey }

func (v mldsa44Verifier) Kind() Kind      { return MLDSA44 }
func (v mldsa44Verifier) Bytes() []byte   { b, _ := v.pk.MarshalBinary(); return b }
func (v mldsa44Verifier) ID() ident.ID256 { return VerifierID(MLDSA44, v.Bytes()) }
func (v mldsa44Verifier) Verify(msg []byte, sig Signature) bool {
	if sig.Kind != MLDSA44 {
		return false
	}
	return mldsa44.Verify(v.pk, msg, nil, sig.Bytes)
}

// --- ML-DSA-65 ---

type mldsa65Signer struct {
	priv *mldsa65.PrivateKey
	pub  mldsa65Verifier
}

func (s *mldsa65Signer) Kind() Kind       { return MLDSA65 }
func (s *mldsa65Signer) Public() Verifier { return s.pub }
func (s *mldsa65Signer) Sign(msg []byte) (Signature, error) {
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(s.priv, msg, nil, false, sig); err != nil {
		return Signature{}, fmt.Errorf("signer: ml-dsa-65 sign: %w", err)
	}
	return Signature{Kind: MLDSA65, Bytes: sig}, nil
}

type mldsa65Verifier struct{ pk *mldsa65.PublicKey }

func (v mldsa65Verifier) Kind() Kind      { return MLDSA65 }
func (v mldsa65Verifier) Bytes() []byte   { b, _ := v.pk.MarshalBinary(); return b }
func (v mldsa65Verifier) ID() ident.ID256 { return VerifierID(MLDSA65, v.Bytes()) }
func (v mldsa65Verifier) Verify(msg []byte, sig Signature) bool {
	if sig.Kind != MLDSA65 {
		return false
	}
	return mldsa65.Verify(v.pk, msg, nil, sig.Bytes)
}

// --- ML-DSA-87 ---

type mldsa87Signer struct {
	priv *mldsa87.PrivateKey
	pub  mldsa87Verifier
}

func (s *mldsa87Signer) Kind() Kind       { return MLDSA87 }
func (s *mldsa87Signer) Public() Verifier { return s.pub }
func (s *mldsa87Signer) Sign(msg []byte) (Signature, error) {
	sig := make([]byte, mldsa87.SignatureSize)
	if err := mldsa87.SignTo(s.priv, msg, nil, false, sig); err != nil {
		return Signature{}, fmt.Errorf("signer: ml-dsa-87 sign: %w", err)
	}
	return Signature{Kind: MLDSA87, Bytes: sig}, nil
}

type mldsa87Verifier struct{ pk *mldsa87.PublicKey }

func (v mldsa87Verifier) Kind() Kind      { return MLDSA87 }
func (v mldsa87Verifier) Bytes() []byte   { b, _ := v.pk.MarshalBinary(); return b }
func (v mldsa87Verifier) ID() ident.ID256 { return VerifierID(MLDSA87, v.Bytes()) }
func (v mldsa87Verifier) Verify(msg []byte, sig Signature) bool {
	if sig.Kind != MLDSA87 {
		return false
	}
	return mldsa87.Verify(v.pk, msg, nil, sig.Bytes)
}
