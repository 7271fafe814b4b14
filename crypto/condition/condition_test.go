// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package condition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

func mustSigner(t *testing.T) signer.Signer {
	t.Helper()
	s, err := signer.New(signer.Ed25519)
	require.NoError(t, err)
	return s
}

func TestPassFail(t *testing.T) {
	require := require.New(t)

	res, err := Evaluate(Pass(), Evidence{})
	require.NoError(err)
	require.True(res.Satisfied)

	res, err = Evaluate(Fail(), Evidence{})
	require.NoError(err)
	require.False(res.Satisfied)
}

func TestVerifierCondition(t *testing.T) {
	require := require.New(t)

	s := mustSigner(t)
	msg := []byte("step")
	sig, err := s.Sign(msg)
	require.NoError(err)

	ev := Evidence{
		Message:    msg,
		Signatures: map[ident.ID256]signer.Signature{s.Public().ID(): sig},
		Verifiers:  map[ident.ID256]signer.Verifier{s.Public().ID(): s.Public()},
	}

	res, err := Evaluate(BySignature(s.Public().ID()), ev)
	require.NoError(err)
	require.True(res.Satisfied)
	require.Equal([]ident.ID256{s.Public().ID()}, res.Used)

	missing := mustSigner(t)
	res, err = Evaluate(BySignature(missing.Public().ID()), ev)
	require.NoError(err)
	require.False(res.Satisfied)
}

func TestAllOfRequiresEveryBranch(t *testing.T) {
	require := require.New(t)

	a := mustSigner(t)
	b := mustSigner(t)
	msg := []byte("step")
	sigA, _ := a.Sign(msg)

	ev := Evidence{
		Message:    msg,
		Signatures: map[ident.ID256]signer.Signature{a.Public().ID(): sigA},
		Verifiers: map[ident.ID256]signer.Verifier{
			a.Public().ID(): a.Public(),
			b.Public().ID(): b.Public(),
		},
	}

	res, err := Evaluate(AllOf(BySignature(a.Public().ID()), BySignature(b.Public().ID())), ev)
	require.NoError(err)
	require.False(res.Satisfied, "missing b's signature must fail AllOf")

	sigB, _ := b.Sign(msg)
	ev.Signatures[b.Public().ID()] = sigB
	res, err = Evaluate(AllOf(BySignature(a.Public().ID()), BySignature(b.Public().ID())), ev)
	require.NoError(err)
	require.True(res.Satisfied)
	require.Len(res.Used, 2)
}

func TestAnyOfShortCircuits(t *testing.T) {
	require := require.New(t)

	a := mustSigner(t)
	msg := []byte("step")
	sigA, _ := a.Sign(msg)

	ev := Evidence{
		Message:    msg,
		Signatures: map[ident.ID256]signer.Signature{a.Public().ID(): sigA},
		Verifiers:  map[ident.ID256]signer.Verifier{a.Public().ID(): a.Public()},
	}

	res, err := Evaluate(AnyOf(Fail(), BySignature(a.Public().ID())), ev)
	require.NoError(err)
	require.True(res.Satisfied)
	require.Equal([]ident.ID256{a.Public().ID()}, res.Used)
}

func TestBadgeConditionRequiresOracle(t *testing.T) {
	require := require.New(t)

	a := mustSigner(t)
	msg := []byte("step")
	sigA, _ := a.Sign(msg)
	badgeID := ident.Hash("test-badge", []byte("admins"))

	ev := Evidence{
		Message:    msg,
		Signatures: map[ident.ID256]signer.Signature{a.Public().ID(): sigA},
		Verifiers:  map[ident.ID256]signer.Verifier{a.Public().ID(): a.Public()},
	}

	res, err := Evaluate(ByBadge(badgeID), ev)
	require.NoError(err)
	require.False(res.Satisfied, "no HasBadge oracle must fail closed")

	ev.HasBadge = func(badge, who ident.ID256) bool {
		return badge == badgeID && who == a.Public().ID()
	}
	res, err = Evaluate(ByBadge(badgeID), ev)
	require.NoError(err)
	require.True(res.Satisfied)
}
