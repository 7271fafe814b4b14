// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package flo

import "github.com/luxfi/flo/crypto/condition"

// Rules is the access-control policy attached to a Flo at genesis and
// optionally replaced by later HistorySteps. Each field is an independent
// Condition; a realm Flo's Rules additionally gate who may create new Flos
// within it (Create) versus who may evolve an existing one (Update).
type Rules struct {
	// Update gates appending a new HistoryStep to this Flo.
	Update condition.Condition `msgpack:"update"`
	// Create gates minting a new child Flo under this one (meaningful only
	// when this Flo is a realm or a Cuckoo parent).
	Create condition.Condition `msgpack:"create"`
	// Delete gates removing this Flo from local storage ahead of its
	// natural eviction by storage budget.
	Delete condition.Condition `msgpack:"delete"`
}

// Open returns Rules that allow any operation unconditionally, the default
// for a freshly bootstrapped realm genesis Flo before its governance is
// configured.
func Open() Rules {
	return Rules{
		Update: condition.Pass(),
		Create: condition.Pass(),
		Delete: condition.Pass(),
	}
}

// Closed returns Rules that reject every operation, useful as a starting
// point for Rules built up with explicit AllOf/AnyOf conditions.
func Closed() Rules {
	return Rules{
		Update: condition.Fail(),
		Create: condition.Fail(),
		Delete: condition.Fail(),
	}
}
