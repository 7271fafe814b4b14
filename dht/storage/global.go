// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage implements the per-realm, content-addressed Flo store
// layered on top of dht/kademlia's routing primitives (spec.md §4.4): a
// node subscribes to zero or more realms, stores a budget-bounded subset
// of Flos biased toward its own id by XOR distance, serves local and
// routed fetches, and periodically exchanges digests with its active
// neighbours to converge.
package storage

import "github.com/luxfi/flo/ident"

// GlobalID addresses a single Flo within a specific realm: the same FloID
// is meaningless without knowing which realm's budget and subscription it
// falls under.
type GlobalID struct {
	Realm ident.ID256
	Flo   ident.ID256
}
