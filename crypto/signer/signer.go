// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package signer implements the signature kinds accepted by access
// Conditions and History step authentication: classical Ed25519 and the
// three FIPS 204 ML-DSA parameter sets, behind a single Signer/Verifier
// pair so Rules never need to branch on algorithm.
package signer

import (
	"fmt"

	"github.com/luxfi/flo/ident"
)

// Kind identifies a signature algorithm.
type Kind uint8

const (
	// Ed25519 is the classical default, cheapest to verify.
	Ed25519 Kind = iota
	// MLDSA44 is the FIPS 204 ML-DSA-44 parameter set (NIST security level 2).
	MLDSA44
	// MLDSA65 is the FIPS 204 ML-DSA-65 parameter set (NIST security level 3).
	MLDSA65
	// MLDSA87 is the FIPS 204 ML-DSA-87 parameter set (NIST security level 5).
	MLDSA87
)

// String renders the kind the way it appears in logs and Verifier ids.
func (k Kind) String() string {
	switch k {
	case Ed25519:
		return "ed25519"
	case MLDSA44:
		return "ml-dsa-44"
	case MLDSA65:
		return "ml-dsa-65"
	case MLDSA87:
		return "ml-dsa-87"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Signature is a signed message's algorithm tag plus raw signature bytes.
type Signature struct {
	Kind  Kind   `msgpack:"kind"`
	Bytes []byte `msgpack:"bytes"`
}

// Signer produces signatures under a private key held only in memory.
type Signer interface {
	Kind() Kind
	Public() Verifier
	Sign(msg []byte) (Signature, error)
}

// Verifier is the public half of a Signer: enough to check a Signature and
// enough to derive the stable identifier Conditions and Rules reference.
type Verifier interface {
	Kind() Kind
	Bytes() []byte
	// ID is the domain-hashed identifier used by Rules and Conditions to
	// name this key without embedding its raw bytes everywhere.
	ID() ident.ID256
	Verify(msg []byte, sig Signature) bool
}

// VerifierID derives the stable identifier for a raw public key under kind.
// It is exposed standalone so Condition evaluation can check an Ace's
// recorded id against a Verifier it only has the bytes for.
func VerifierID(kind Kind, pub []byte) ident.ID256 {
	return ident.Hash("signer-verifier", []byte{byte(kind)}, pub)
}

// ErrKindMismatch is returned when a Signature's Kind does not match the
// Verifier it is checked against.
type ErrKindMismatch struct {
	Want, Got Kind
}

func (e ErrKindMismatch) Error() string {
	return fmt.Sprintf("signer: signature kind %s does not match verifier kind %s", e.Got, e.Want)
}

// New constructs a fresh Signer of the requested kind.
func New(kind Kind) (Signer, error) {
	switch kind {
	case Ed25519:
		return newEd25519()
	case MLDSA44, MLDSA65, MLDSA87:
		return newMLDSA(kind)
	default:
		return nil, fmt.Errorf("signer: unknown kind %d", kind)
	}
}

// ParseVerifier reconstructs a Verifier from its wire Kind and raw bytes,
// for example after decoding a Flo's Rules from storage.
func ParseVerifier(kind Kind, pub []byte) (Verifier, error) {
	switch kind {
	case Ed25519:
		return parseEd25519Verifier(pub)
	case MLDSA44, MLDSA65, MLDSA87:
		return parseMLDSAVerifier(kind, pub)
	default:
		return nil, fmt.Errorf("signer: unknown kind %d", kind)
	}
}
