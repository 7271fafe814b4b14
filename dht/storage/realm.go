// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/luxfi/flo/config"
	"github.com/luxfi/flo/flo"
	"github.com/luxfi/flo/ident"
)

// waiter is one pending get_flo_timeout call blocked on a specific FloID.
type waiter struct {
	reply   chan *flo.Flo
	deadline time.Time
}

// realmState is the spec.md §4.4 on-disk/in-memory layout for a single
// subscribed realm: its held Flos, cuckoo links, usage accounting and
// pending fetch waiters.
type realmState struct {
	mu sync.RWMutex

	realm  ident.ID256
	budget flo.RealmBudget
	cfg    config.RealmConfig

	flos   map[ident.ID256]*flo.Flo
	sizes  map[ident.ID256]uint64
	cuckoo *flo.CuckooIndex
	usage  flo.Usage

	pending map[ident.ID256][]*waiter

	stats realmStats
}

func newRealmState(realm ident.ID256, cfg config.RealmConfig) *realmState {
	return &realmState{
		realm:   realm,
		budget:  flo.RealmBudget{Realm: realm, MaxBytes: cfg.MaxSpace},
		cfg:     cfg,
		flos:    make(map[ident.ID256]*flo.Flo),
		sizes:   make(map[ident.ID256]uint64),
		cuckoo:  flo.NewCuckooIndex(),
		pending: make(map[ident.ID256][]*waiter),
	}
}

// evictionCandidates returns every currently stored FloID ordered by
// ascending value score relative to self (least valuable first), the
// order the store algorithm evicts in.
func (r *realmState) evictionCandidates(self ident.ID256) []ident.ID256 {
	ids := make([]ident.ID256, 0, len(r.flos))
	for id := range r.flos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		// Less value (farther from self) sorts first: ascending V order.
		return !flo.RankCloser(self, ids[i], ids[j])
	})
	return ids
}

// put inserts or replaces f directly, without budget/eviction logic,
// updating usage and size bookkeeping. Callers must hold mu.
func (r *realmState) put(f *flo.Flo, size uint64) {
	if old, ok := r.sizes[f.ID]; ok {
		r.usage.Bytes -= old
		r.usage.Count--
	}
	r.flos[f.ID] = f
	r.sizes[f.ID] = size
	r.usage.Bytes += size
	r.usage.Count++
}

// remove deletes id, updating usage bookkeeping. Callers must hold mu.
func (r *realmState) remove(id ident.ID256) {
	size, ok := r.sizes[id]
	if !ok {
		return
	}
	delete(r.flos, id)
	delete(r.sizes, id)
	r.usage.Bytes -= size
	r.usage.Count--
}

// resolveWaiters delivers f to every pending waiter on f.ID and clears
// them. Callers must hold mu.
func (r *realmState) resolveWaiters(f *flo.Flo) {
	ws := r.pending[f.ID]
	delete(r.pending, f.ID)
	for _, w := range ws {
		select {
		case w.reply <- f:
		default:
		}
	}
}
