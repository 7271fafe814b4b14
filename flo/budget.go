// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import (
	"github.com/luxfi/flo/ident"
	safemath "github.com/luxfi/flo/util/math"
)

// RankCloser reports whether a is strictly closer to target (typically the
// local node's own id or a realm key) than b by XOR distance, i.e. whether
// a has the higher retention value score 1 / (1 + XORDistance(target, id)).
// The score itself is never computed: comparing distances orders ids the
// same way, and this comparison is what storage eviction uses.
func RankCloser(target, a, b ident.ID256) bool {
	return ident.Less(target, a, b)
}

// RealmBudget bounds how many bytes of Flo state a realm may occupy in
// local storage before the lowest value-score members are evicted.
type RealmBudget struct {
	Realm    ident.ID256
	MaxBytes uint64
}

// Usage tracks a realm's live consumption against its RealmBudget.
type Usage struct {
	Bytes uint64
	Count uint64
}

// Exceeds reports whether adding addBytes to usage would exceed budget. A
// sum that overflows uint64 is treated as exceeding the budget rather than
// wrapping around to a small, falsely-acceptable value.
func (b RealmBudget) Exceeds(usage Usage, addBytes uint64) bool {
	total, err := safemath.Add64(usage.Bytes, addBytes)
	if err != nil {
		return true
	}
	return total > b.MaxBytes
}
