// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package condition implements the recursive access predicates that a
// Flo's Rules evaluate against a proposed History step: Pass, Fail, a
// single Verifier's signature, a Badge membership check, and the AllOf/AnyOf
// combinators over nested Conditions.
package condition

import (
	"fmt"

	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

// Kind tags the concrete shape of a Condition for the wire encoding.
type Kind uint8

const (
	KindPass Kind = iota
	KindFail
	KindVerifier
	KindBadge
	KindAllOf
	KindAnyOf
)

// Condition is a node in the access predicate tree attached to a Flo's
// Rules. It is evaluated against an Evidence bundle gathered for a proposed
// History step.
type Condition struct {
	Kind     Kind         `msgpack:"kind"`
	Verifier ident.ID256  `msgpack:"verifier,omitempty"`
	Badge    ident.ID256  `msgpack:"badge,omitempty"`
	Nested   []Condition  `msgpack:"nested,omitempty"`
}

// Pass always evaluates to true, independent of evidence.
func Pass() Condition { return Condition{Kind: KindPass} }

// Fail always evaluates to false.
func Fail() Condition { return Condition{Kind: KindFail} }

// BySignature is satisfied when evidence carries a valid signature from the
// named Verifier over the evaluated message.
func BySignature(id ident.ID256) Condition { return Condition{Kind: KindVerifier, Verifier: id} }

// ByBadge is satisfied when evidence proves membership in the badge Flo
// identified by id, via Evidence.HasBadge.
func ByBadge(id ident.ID256) Condition { return Condition{Kind: KindBadge, Badge: id} }

// AllOf is satisfied only when every nested Condition is satisfied.
func AllOf(conds ...Condition) Condition { return Condition{Kind: KindAllOf, Nested: conds} }

// AnyOf is satisfied when at least one nested Condition is satisfied.
func AnyOf(conds ...Condition) Condition { return Condition{Kind: KindAnyOf, Nested: conds} }

// Evidence is everything available to evaluate a Condition against one
// proposed message: the signatures a submitter attached, plus an optional
// badge membership oracle.
type Evidence struct {
	Message    []byte
	Signatures map[ident.ID256]signer.Signature
	Verifiers  map[ident.ID256]signer.Verifier
	// HasBadge reports whether signer has proven membership in badge. It is
	// nil when the caller supplies no badge context, in which case any
	// ByBadge condition fails closed.
	HasBadge func(badge ident.ID256, signer ident.ID256) bool
}

// Result records whether a Condition was satisfied and the minimal set of
// Verifier ids whose signatures were actually required to reach that
// verdict, so callers can charge storage budgets or log accountability
// without retaining signatures that evaluation never consulted.
type Result struct {
	Satisfied bool
	Used      []ident.ID256
}

// Evaluate walks the Condition tree against ev and returns whether it is
// satisfied along with the minimal signature set that justified the
// verdict. AnyOf short-circuits on the first satisfied branch and reports
// only that branch's usage; AllOf must satisfy every branch and reports the
// union.
func Evaluate(c Condition, ev Evidence) (Result, error) {
	switch c.Kind {
	case KindPass:
		return Result{Satisfied: true}, nil
	case KindFail:
		return Result{Satisfied: false}, nil
	case KindVerifier:
		return evaluateVerifier(c, ev)
	case KindBadge:
		return evaluateBadge(c, ev)
	case KindAllOf:
		return evaluateAllOf(c, ev)
	case KindAnyOf:
		return evaluateAnyOf(c, ev)
	default:
		return Result{}, fmt.Errorf("condition: unknown kind %d", c.Kind)
	}
}

func evaluateVerifier(c Condition, ev Evidence) (Result, error) {
	sig, hasSig := ev.Signatures[c.Verifier]
	verifier, hasVerifier := ev.Verifiers[c.Verifier]
	if !hasSig || !hasVerifier {
		return Result{Satisfied: false}, nil
	}
	if !verifier.Verify(ev.Message, sig) {
		return Result{Satisfied: false}, nil
	}
	return Result{Satisfied: true, Used: []ident.ID256{c.Verifier}}, nil
}

func evaluateBadge(c Condition, ev Evidence) (Result, error) {
	if ev.HasBadge == nil {
		return Result{Satisfied: false}, nil
	}
	for signerID := range ev.Signatures {
		sig := ev.Signatures[signerID]
		verifier, ok := ev.Verifiers[signerID]
		if !ok || !verifier.Verify(ev.Message, sig) {
			continue
		}
		if ev.HasBadge(c.Badge, signerID) {
			return Result{Satisfied: true, Used: []ident.ID256{signerID}}, nil
		}
	}
	return Result{Satisfied: false}, nil
}

func evaluateAllOf(c Condition, ev Evidence) (Result, error) {
	var used []ident.ID256
	for _, nested := range c.Nested {
		res, err := Evaluate(nested, ev)
		if err != nil {
			return Result{}, err
		}
		if !res.Satisfied {
			return Result{Satisfied: false}, nil
		}
		used = append(used, res.Used...)
	}
	return Result{Satisfied: true, Used: used}, nil
}

func evaluateAnyOf(c Condition, ev Evidence) (Result, error) {
	for _, nested := range c.Nested {
		res, err := Evaluate(nested, ev)
		if err != nil {
			return Result{}, err
		}
		if res.Satisfied {
			return res, nil
		}
	}
	return Result{Satisfied: false}, nil
}
