// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import (
	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/ident"
)

// HistoryStep is one signed transition in a Flo's evolution: the new state
// it proposes, the signatures offered to satisfy the active Rules' Update
// condition, and an optional Rules replacement taking effect from this step
// onward.
type HistoryStep struct {
	State      []byte                            `msgpack:"state"`
	Signatures map[ident.ID256]signer.Signature   `msgpack:"signatures"`
	NewRules   *Rules                             `msgpack:"new_rules,omitempty"`
	// PrevStateHash pins the step to the state it was proposed against,
	// rejecting a step computed against a stale view of the Flo.
	PrevStateHash ident.ID256 `msgpack:"prev_state_hash"`
}

// SigningMessage returns the bytes a Signature in Signatures must cover:
// the domain-hashed combination of the proposed state and the state it
// replaces, so a signature cannot be replayed against a different
// transition.
func SigningMessage(prevStateHash ident.ID256, newState []byte) []byte {
	msg := ident.Hash("flo-history-step", prevStateHash[:], newState)
	return msg[:]
}
