// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peerrouter composes the two peer selection strategies a routing
// lookup or gossip broadcast draws candidates from: peers already known
// through DHT signalling, and a bounded random subset maintained
// independently of routing state to keep the network graph connected even
// when the routing table itself is sparse or adversarially shaped.
package peerrouter

import (
	"fmt"

	"github.com/luxfi/flo/ident"
	"github.com/luxfi/flo/util/sampler"
	"github.com/luxfi/flo/util/set"
)

// PeerSource produces candidate peers for a lookup or broadcast. Both
// DirectNetworkRouter and RandomConnectionRouter implement it so callers
// can compose them without caring which supplied a given candidate.
type PeerSource interface {
	// Candidates returns up to n peer ids this source currently considers
	// reachable, excluding any id present in exclude.
	Candidates(n int, exclude set.Set[ident.ID256]) []ident.ID256
}

// DirectNetworkRouter selects from peers the local node already knows
// through signalling exchange, in no defined order.
type DirectNetworkRouter struct {
	known set.Set[ident.ID256]
}

// NewDirectNetworkRouter returns a router with no known peers.
func NewDirectNetworkRouter() *DirectNetworkRouter {
	return &DirectNetworkRouter{known: set.Of[ident.ID256]()}
}

// Add records peer as reachable via direct signalling.
func (r *DirectNetworkRouter) Add(peer ident.ID256) {
	r.known.Add(peer)
}

// Remove forgets peer, typically after its NodeConnection closes.
func (r *DirectNetworkRouter) Remove(peer ident.ID256) {
	r.known.Remove(peer)
}

// Candidates returns up to n known peers not present in exclude. Order is
// non-deterministic; callers that need proximity ordering should sort the
// result with ident.Less against their target.
func (r *DirectNetworkRouter) Candidates(n int, exclude set.Set[ident.ID256]) []ident.ID256 {
	out := make([]ident.ID256, 0, n)
	for peer := range r.known {
		if exclude.Contains(peer) {
			continue
		}
		out = append(out, peer)
		if len(out) >= n {
			break
		}
	}
	return out
}

// Len returns how many peers this router currently knows.
func (r *DirectNetworkRouter) Len() int {
	return r.known.Len()
}

// RandomConnectionRouter maintains a bounded pool of peers selected
// uniformly at random from a larger candidate universe, replaced wholesale
// on each Refill call, so the network stays connected independent of the
// DHT's own proximity-biased routing.
type RandomConnectionRouter struct {
	pool []ident.ID256
}

// NewRandomConnectionRouter returns a router with an empty pool.
func NewRandomConnectionRouter() *RandomConnectionRouter {
	return &RandomConnectionRouter{}
}

// Refill replaces the pool with up to poolSize peers sampled uniformly at
// random from universe.
func (r *RandomConnectionRouter) Refill(universe []ident.ID256, poolSize int) error {
	if poolSize > len(universe) {
		poolSize = len(universe)
	}
	if poolSize == 0 {
		r.pool = nil
		return nil
	}

	u := sampler.NewUniform()
	if err := u.Initialize(len(universe)); err != nil {
		return fmt.Errorf("peerrouter: initializing sampler: %w", err)
	}
	indices, ok := u.Sample(poolSize)
	if !ok {
		return fmt.Errorf("peerrouter: sampling %d of %d candidates", poolSize, len(universe))
	}

	pool := make([]ident.ID256, len(indices))
	for i, idx := range indices {
		pool[i] = universe[idx]
	}
	r.pool = pool
	return nil
}

// Candidates returns up to n peers from the current random pool, excluding
// any id present in exclude.
func (r *RandomConnectionRouter) Candidates(n int, exclude set.Set[ident.ID256]) []ident.ID256 {
	out := make([]ident.ID256, 0, n)
	for _, peer := range r.pool {
		if exclude.Contains(peer) {
			continue
		}
		out = append(out, peer)
		if len(out) >= n {
			break
		}
	}
	return out
}

// Composite merges several PeerSources into one, querying each in order
// and stopping once n candidates have been collected, so a cheap/preferred
// source (e.g. DirectNetworkRouter) is exhausted before falling back to a
// more expensive or less targeted one.
type Composite struct {
	sources []PeerSource
}

// NewComposite returns a PeerSource that queries sources in order.
func NewComposite(sources ...PeerSource) *Composite {
	return &Composite{sources: sources}
}

// Candidates implements PeerSource.
func (c *Composite) Candidates(n int, exclude set.Set[ident.ID256]) []ident.ID256 {
	out := make([]ident.ID256, 0, n)
	seen := exclude.Clone()
	for _, src := range c.sources {
		if len(out) >= n {
			break
		}
		for _, peer := range src.Candidates(n-len(out), seen) {
			if seen.Contains(peer) {
				continue
			}
			out = append(out, peer)
			seen.Add(peer)
			if len(out) >= n {
				break
			}
		}
	}
	return out
}
