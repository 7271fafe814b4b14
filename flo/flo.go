// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package flo implements the content-addressed, access-controlled object
// model shared by every realm in the fabric: a Flo's identity is fixed at
// genesis, and every later state is reached by a signed HistoryStep whose
// right to apply is decided by the Flo's Rules.
package flo

import (
	"fmt"

	"github.com/luxfi/flo/crypto/condition"
	"github.com/luxfi/flo/ident"
)

// Type discriminates the kind of object a Flo represents. Application code
// is free to define its own Type values above TypeReserved; the fabric
// itself only special-cases TypeRealm and TypeBadge.
type Type uint16

const (
	TypeData Type = iota
	TypeRealm
	TypeBadge
	TypeReserved Type = 1 << 15
)

// Genesis is the immutable birth certificate of a Flo: its type, its first
// data payload, and the Rules governing every future HistoryStep. FloID is
// derived from exactly these three fields, so two genesis values that agree
// on type, data hash and rules are the same Flo.
type Genesis struct {
	Type  Type          `msgpack:"type"`
	Data  []byte        `msgpack:"data"`
	Rules Rules         `msgpack:"rules"`
	// Realm is the realm this Flo belongs to, used for storage budget
	// accounting and routing. The realm-defining Flo points to itself.
	Realm ident.ID256 `msgpack:"realm"`
	// Parent optionally names another Flo this one is Cuckoo-nested
	// under; it remains independently stored and addressable by its own
	// FloID. The zero value means no parent.
	Parent ident.ID256 `msgpack:"parent,omitempty"`
}

// HasParent reports whether g declares a Cuckoo parent.
func (g Genesis) HasParent() bool {
	return !g.Parent.IsEmpty()
}

// id computes the FloID for a Genesis: domain-hashed over exactly
// flo_type, the hash of the genesis data, and the encoded rules (spec.md
// §6: "flo_id is derivable purely from flo_type, genesis.data_hash, and
// genesis.rules"). Realm and Parent are deliberately excluded: Realm is
// where the Flo lives, not what it is (excluding it is what lets a
// realm's founding Flo self-adopt by setting its own Realm field to its
// own already-computed id), and Parent is a storage-placement hint
// (cuckoo) rather than identity — two Flos identical in type, data and
// rules but differing only in their cuckoo parent are the same Flo.
func (g Genesis) id() (ident.ID256, error) {
	rulesBytes, err := encodeRules(g.Rules)
	if err != nil {
		return ident.ID256{}, fmt.Errorf("flo: encoding rules for id: %w", err)
	}
	dataHash := ident.Hash("flo-genesis-data", g.Data)
	return ident.Hash("flo", []byte{byte(g.Type >> 8), byte(g.Type)}, dataHash[:], rulesBytes), nil
}

// Flo is a single object: its fixed identity, its genesis, and the chain of
// HistorySteps applied to it so far in ascending order. The current state is
// History[len(History)-1].State, or Genesis.Data if no step has applied yet.
type Flo struct {
	ID      ident.ID256   `msgpack:"id"`
	Genesis Genesis       `msgpack:"genesis"`
	History []HistoryStep `msgpack:"history"`
}

// New creates a Flo from a Genesis, computing its identity.
func New(g Genesis) (*Flo, error) {
	id, err := g.id()
	if err != nil {
		return nil, err
	}
	return &Flo{ID: id, Genesis: g}, nil
}

// State returns the Flo's current data: the latest applied HistoryStep's
// resulting state, or the genesis data if the Flo has never evolved.
func (f *Flo) State() []byte {
	if len(f.History) == 0 {
		return f.Genesis.Data
	}
	return f.History[len(f.History)-1].State
}

// StateHash returns the domain-hashed fingerprint of the Flo's current
// state, the value a HistoryStep's PrevStateHash must match to be accepted.
func (f *Flo) StateHash() ident.ID256 {
	return ident.Hash("flo-state", f.State())
}

// Height is the number of HistorySteps applied so far.
func (f *Flo) Height() uint64 {
	return uint64(len(f.History))
}

// ActiveRules returns the Rules currently governing this Flo: either the
// genesis Rules, or the last HistoryStep's NewRules if one updated them.
func (f *Flo) ActiveRules() Rules {
	for i := len(f.History) - 1; i >= 0; i-- {
		if f.History[i].NewRules != nil {
			return *f.History[i].NewRules
		}
	}
	return f.Genesis.Rules
}

// IsRealmGenesis reports whether this Flo defines the realm it belongs to
// (its Realm field points back at its own id), the self-adoption pattern a
// newly bootstrapped realm's founding Flo uses.
func (f *Flo) IsRealmGenesis() bool {
	return f.Genesis.Type == TypeRealm && f.Genesis.Realm == f.ID
}

// VerifyID recomputes the FloID from Genesis and confirms it matches ID,
// guarding against a tampered or mis-transcribed Flo.
func (f *Flo) VerifyID() error {
	want, err := f.Genesis.id()
	if err != nil {
		return err
	}
	if want != f.ID {
		return fmt.Errorf("flo: id mismatch: genesis hashes to %s, have %s", want, f.ID)
	}
	return nil
}

// Apply validates step against the Flo's currently active Rules and, if
// accepted, appends it to History and returns the updated Flo. The receiver
// is not mutated; callers that want in-place update should reassign.
func Apply(f *Flo, step HistoryStep, ev condition.Evidence) (*Flo, error) {
	if step.PrevStateHash != f.StateHash() {
		return nil, ErrStaleStep
	}
	rules := f.ActiveRules()
	res, err := condition.Evaluate(rules.Update, ev)
	if err != nil {
		return nil, fmt.Errorf("flo: evaluating update condition: %w", err)
	}
	if !res.Satisfied {
		return nil, ErrRuleRejected
	}
	next := &Flo{
		ID:      f.ID,
		Genesis: f.Genesis,
		History: append(append([]HistoryStep{}, f.History...), step),
	}
	return next, nil
}

// ErrRuleRejected is returned by Apply when the Flo's active Rules do not
// authorize the proposed HistoryStep.
var ErrRuleRejected = fmt.Errorf("flo: rules rejected proposed history step")
