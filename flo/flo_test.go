// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/crypto/condition"
	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

func newTestFlo(t *testing.T, rules Rules) (*Flo, ident.ID256) {
	t.Helper()
	realm, err := ident.Random()
	require.NoError(t, err)
	f, err := New(Genesis{Type: TypeData, Data: []byte("hello"), Rules: rules, Realm: realm})
	require.NoError(t, err)
	return f, realm
}

func TestNewDeterministicID(t *testing.T) {
	require := require.New(t)

	realm, err := ident.Random()
	require.NoError(err)
	g := Genesis{Type: TypeData, Data: []byte("payload"), Rules: Open(), Realm: realm}

	a, err := New(g)
	require.NoError(err)
	b, err := New(g)
	require.NoError(err)
	require.Equal(a.ID, b.ID)
	require.NoError(a.VerifyID())
}

func TestGenesisIDExcludesCuckooParent(t *testing.T) {
	require := require.New(t)

	realm, err := ident.Random()
	require.NoError(err)
	parentA, err := ident.Random()
	require.NoError(err)
	parentB, err := ident.Random()
	require.NoError(err)

	withoutParent, err := New(Genesis{Type: TypeData, Data: []byte("payload"), Rules: Open(), Realm: realm})
	require.NoError(err)
	withParentA, err := New(Genesis{Type: TypeData, Data: []byte("payload"), Rules: Open(), Realm: realm, Parent: parentA})
	require.NoError(err)
	withParentB, err := New(Genesis{Type: TypeData, Data: []byte("payload"), Rules: Open(), Realm: realm, Parent: parentB})
	require.NoError(err)

	require.Equal(withoutParent.ID, withParentA.ID, "cuckoo parent must not affect flo_id (spec.md §6)")
	require.Equal(withoutParent.ID, withParentB.ID, "cuckoo parent must not affect flo_id (spec.md §6)")
}

func TestStateDefaultsToGenesisData(t *testing.T) {
	require := require.New(t)
	f, _ := newTestFlo(t, Open())
	require.Equal([]byte("hello"), f.State())
	require.Equal(uint64(0), f.Height())
}

func TestApplyAcceptsValidStep(t *testing.T) {
	require := require.New(t)

	s, err := signer.New(signer.Ed25519)
	require.NoError(err)

	rules := Rules{Update: condition.BySignature(s.Public().ID()), Create: condition.Fail(), Delete: condition.Fail()}
	f, _ := newTestFlo(t, rules)

	newState := []byte("world")
	msg := SigningMessage(f.StateHash(), newState)
	sig, err := s.Sign(msg)
	require.NoError(err)

	step := HistoryStep{
		State:         newState,
		PrevStateHash: f.StateHash(),
		Signatures:    map[ident.ID256]signer.Signature{s.Public().ID(): sig},
	}
	ev := condition.Evidence{
		Message:    msg,
		Signatures: step.Signatures,
		Verifiers:  map[ident.ID256]signer.Verifier{s.Public().ID(): s.Public()},
	}

	next, err := Apply(f, step, ev)
	require.NoError(err)
	require.Equal(newState, next.State())
	require.Equal(uint64(1), next.Height())
	require.Equal(f.ID, next.ID, "applying a step must not change identity")
}

func TestApplyRejectsStaleStep(t *testing.T) {
	require := require.New(t)

	f, _ := newTestFlo(t, Open())
	var stale ident.ID256
	stale[0] = 0xFF

	step := HistoryStep{State: []byte("world"), PrevStateHash: stale}
	_, err := Apply(f, step, condition.Evidence{})
	require.ErrorIs(err, ErrStaleStep)
}

func TestApplyRejectsUnauthorizedStep(t *testing.T) {
	require := require.New(t)

	f, _ := newTestFlo(t, Closed())
	step := HistoryStep{State: []byte("world"), PrevStateHash: f.StateHash()}
	_, err := Apply(f, step, condition.Evidence{})
	require.ErrorIs(err, ErrRuleRejected)
}

func TestActiveRulesFollowsLatestReplacement(t *testing.T) {
	require := require.New(t)

	f, _ := newTestFlo(t, Open())
	newRules := Closed()
	step := HistoryStep{State: []byte("world"), PrevStateHash: f.StateHash(), NewRules: &newRules}
	next, err := Apply(f, step, condition.Evidence{})
	require.NoError(err)

	active := next.ActiveRules()
	res, err := condition.Evaluate(active.Update, condition.Evidence{})
	require.NoError(err)
	require.False(res.Satisfied, "replaced rules must take effect")
}

func TestIsRealmGenesis(t *testing.T) {
	require := require.New(t)

	realmPlaceholder, err := ident.Random()
	require.NoError(err)
	g := Genesis{Type: TypeRealm, Data: []byte("realm-root"), Rules: Open(), Realm: realmPlaceholder}
	f, err := New(g)
	require.NoError(err)
	require.False(f.IsRealmGenesis(), "realm field must equal the computed id, not an arbitrary placeholder")

	selfAdopted, err := New(Genesis{Type: TypeRealm, Data: []byte("realm-root"), Rules: Open(), Realm: f.ID})
	require.NoError(err)
	require.Equal(selfAdopted.ID, f.ID, "realm field does not affect data/rules/type hashing so id is unchanged")
	require.True(selfAdopted.IsRealmGenesis())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	require := require.New(t)

	f, _ := newTestFlo(t, Open())
	data, err := Encode(f)
	require.NoError(err)

	out, err := Decode(data)
	require.NoError(err)
	require.Equal(f.ID, out.ID)
	require.Equal(f.State(), out.State())
}
