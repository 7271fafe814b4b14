// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEd25519SignVerify(t *testing.T) {
	require := require.New(t)

	s, err := New(Ed25519)
	require.NoError(err)

	msg := []byte("hello flo")
	sig, err := s.Sign(msg)
	require.NoError(err)
	require.True(s.Public().Verify(msg, sig))
	require.False(s.Public().Verify([]byte("tampered"), sig))
}

func TestKindMismatchRejected(t *testing.T) {
	require := require.New(t)

	ed, err := New(Ed25519)
	require.NoError(err)

	other, err := New(MLDSA44)
	require.NoError(err)

	msg := []byte("hello flo")
	sig, err := other.Sign(msg)
	require.NoError(err)

	require.False(ed.Public().Verify(msg, sig), "verifier must reject a signature of the wrong kind")
}

func TestVerifierIDStable(t *testing.T) {
	require := require.New(t)

	s, err := New(Ed25519)
	require.NoError(err)

	id1 := s.Public().ID()
	parsed, err := ParseVerifier(Ed25519, s.Public().Bytes())
	require.NoError(err)
	require.Equal(id1, parsed.ID())
}
