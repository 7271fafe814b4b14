// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/flo/config"
	"github.com/luxfi/flo/crypto/condition"
	"github.com/luxfi/flo/crypto/signer"
	"github.com/luxfi/flo/dht/kademlia"
	"github.com/luxfi/flo/flo"
	"github.com/luxfi/flo/ident"
	nolog "github.com/luxfi/flo/log"
	"github.com/luxfi/flo/metrics"
)

// VerifierResolver looks up the public Verifier for a signer id, the
// directory a caller's own identity/NodeInfo layer maintains. Update
// validation consults it to check a HistoryStep's signatures against a
// Flo's active Rules; a resolver that never finds anything causes every
// signature-gated Rule to fail closed, which is the safe default.
type VerifierResolver func(id ident.ID256) (signer.Verifier, bool)

// Store is the per-node DHT storage component: one realmState per
// subscribed realm, routed through a kademlia.Router for fetch and sync
// traffic. It implements spec.md §4.4 in full: store_flo, get_flo,
// get_flo_timeout, get_flos, get_cuckoos, sync, settle.
type Store struct {
	self      ident.ID256
	cfg       config.Config
	router    *kademlia.Router
	verifiers VerifierResolver
	log       log.Logger

	digestBudget int

	mu     sync.RWMutex
	realms map[ident.ID256]*realmState

	registry metrics.Registry
}

// New wires a Store for self, subscribing to every realm cfg.DHT.Realms
// names, routing fetch/sync traffic through router. digestBudget bounds
// how many FloIDs a single sync digest offers (0 selects a sane default).
func New(self ident.ID256, cfg config.Config, router *kademlia.Router, verifiers VerifierResolver, registry metrics.Registry, logger log.Logger, digestBudget int) (*Store, error) {
	if digestBudget <= 0 {
		digestBudget = 64
	}
	if verifiers == nil {
		verifiers = func(ident.ID256) (signer.Verifier, bool) { return nil, false }
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	s := &Store{
		self:         self,
		cfg:          cfg,
		router:       router,
		verifiers:    verifiers,
		log:          logger,
		digestBudget: digestBudget,
		realms:       make(map[ident.ID256]*realmState),
		registry:     registry,
	}
	for _, realm := range cfg.DHT.Realms {
		rc, ok := cfg.RealmConfigFor(realm)
		if !ok {
			return nil, fmt.Errorf("storage: realm %s subscribed with no RealmConfig", realm)
		}
		rs := newRealmState(realm, rc)
		rs.stats = newRealmStats(registry, realm)
		s.realms[realm] = rs
	}
	if router != nil {
		router.Events.AddHandler(s.handleRouterEvent)
	}
	return s, nil
}

func (s *Store) realmFor(realm ident.ID256) (*realmState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.realms[realm]
	return rs, ok
}

// StoreFlo validates and inserts f per the spec.md §4.4 store algorithm:
// realm membership and size are checked, then the value-score eviction
// policy makes room if the realm's budget is exceeded.
func (s *Store) StoreFlo(f *flo.Flo) error {
	rs, ok := s.realmFor(f.Genesis.Realm)
	if !ok {
		return ErrRealmNotSubscribed
	}

	encoded, err := flo.Encode(f)
	if err != nil {
		return fmt.Errorf("storage: encoding flo: %w", err)
	}
	size := uint64(len(encoded))
	if rs.cfg.MaxFloSize > 0 && size > uint64(rs.cfg.MaxFloSize) {
		return ErrTooLarge
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if existing, has := rs.flos[f.ID]; has {
		return s.applyUpdateLocked(rs, existing, f, size)
	}

	if err := s.makeRoomLocked(rs, f.ID, size); err != nil {
		return err
	}
	rs.put(f, size)
	s.applyCuckooLocked(rs, f)
	rs.resolveWaiters(f)
	return nil
}

// applyUpdateLocked implements the spec.md §4.4 update algorithm: accept
// strictly-newer-version replacements whose latest HistoryStep was
// authorized by the stored Flo's active Rules at that point, dropping
// everything else. Callers must hold rs.mu.
func (s *Store) applyUpdateLocked(rs *realmState, existing, incoming *flo.Flo, size uint64) error {
	if incoming.Height() <= existing.Height() {
		return nil // stale or duplicate, silent drop per spec.md
	}
	if len(incoming.History) == 0 {
		return nil
	}
	step := incoming.History[len(incoming.History)-1]

	verifiers := make(map[ident.ID256]signer.Verifier, len(step.Signatures))
	for signerID := range step.Signatures {
		if v, ok := s.verifiers(signerID); ok {
			verifiers[signerID] = v
		}
	}
	ev := condition.Evidence{
		Message:    flo.SigningMessage(step.PrevStateHash, step.State),
		Signatures: step.Signatures,
		Verifiers:  verifiers,
	}
	if _, err := flo.Apply(existing, step, ev); err != nil {
		return nil // invalid or stale, hard drop, no error surfaced
	}

	if err := s.makeRoomLocked(rs, incoming.ID, size); err != nil {
		return err
	}
	rs.put(incoming, size)
	s.applyCuckooLocked(rs, incoming)
	rs.resolveWaiters(incoming)
	return nil
}

func (s *Store) applyCuckooLocked(rs *realmState, f *flo.Flo) {
	if f.Genesis.HasParent() {
		rs.cuckoo.Link(f.Genesis.Parent, f.ID)
	}
}

// makeRoomLocked evicts the least valuable stored Flos (ascending value
// score relative to self) until adding a Flo of addBytes would fit the
// realm budget, or refuses with ErrBudgetExceeded if the incoming Flo is
// less valuable than the candidates it would have to displace. Flos listed
// in the DHT config's Owned set are never chosen for eviction. Callers
// must hold rs.mu.
func (s *Store) makeRoomLocked(rs *realmState, incoming ident.ID256, addBytes uint64) error {
	if !rs.budget.Exceeds(rs.usage, addBytes) {
		return nil
	}

	owned := make(map[ident.ID256]bool, len(s.cfg.DHT.Owned))
	for _, id := range s.cfg.DHT.Owned {
		owned[id] = true
	}
	candidates := rs.evictionCandidates(s.self)
	freed := uint64(0)
	var toEvict []ident.ID256
	for _, id := range candidates {
		if id == incoming || owned[id] {
			continue
		}
		if !rs.budget.Exceeds(flo.Usage{Bytes: rs.usage.Bytes - freed, Count: rs.usage.Count}, addBytes) {
			break
		}
		freed += rs.sizes[id]
		toEvict = append(toEvict, id)
	}
	if rs.budget.Exceeds(flo.Usage{Bytes: rs.usage.Bytes - freed, Count: rs.usage.Count}, addBytes) {
		return ErrBudgetExceeded
	}
	if len(toEvict) > 0 {
		// toEvict is ordered ascending by value (least valuable first);
		// its last member is the most valuable Flo we'd have to displace.
		mostValuable := toEvict[len(toEvict)-1]
		if flo.RankCloser(s.self, mostValuable, incoming) {
			return ErrBudgetExceeded
		}
	}
	for _, id := range toEvict {
		rs.remove(id)
		rs.stats.evictions.Inc()
	}
	if rs.stats.usedSpace != nil {
		rs.stats.usedSpace.Set(float64(rs.usage.Bytes))
	}
	return nil
}

// GetFlo returns the Flo named by gid: immediately if locally present,
// otherwise by routing a request toward the node closest to its FloID and
// waiting for a reply under the realm's default timeout.
func (s *Store) GetFlo(gid GlobalID) (*flo.Flo, error) {
	return s.GetFloTimeout(gid, time.Duration(s.cfg.DHT.TimeoutMS)*time.Millisecond)
}

// GetFloTimeout is GetFlo with an explicit deadline.
func (s *Store) GetFloTimeout(gid GlobalID, timeout time.Duration) (*flo.Flo, error) {
	rs, ok := s.realmFor(gid.Realm)
	if !ok {
		return nil, ErrRealmNotSubscribed
	}

	rs.mu.Lock()
	if f, has := rs.flos[gid.Flo]; has {
		rs.stats.hits.Inc()
		rs.mu.Unlock()
		return f, nil
	}
	rs.stats.misses.Inc()
	w := &waiter{reply: make(chan *flo.Flo, 1), deadline: time.Now().Add(timeout)}
	rs.pending[gid.Flo] = append(rs.pending[gid.Flo], w)
	rs.mu.Unlock()

	payload, err := encodeMessage(Message{Kind: MsgFloRequest, Realm: gid.Realm, FloID: gid.Flo})
	if err != nil {
		return nil, err
	}
	if s.router != nil {
		if err := s.router.RouteClosest(s.self, ident.ID256{}, gid.Flo, payload); err != nil {
			return nil, err
		}
	}

	select {
	case f := <-w.reply:
		return f, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// GetFlos returns a snapshot of every Flo currently stored for realm.
func (s *Store) GetFlos(realm ident.ID256) []*flo.Flo {
	rs, ok := s.realmFor(realm)
	if !ok {
		return nil
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]*flo.Flo, 0, len(rs.flos))
	for _, f := range rs.flos {
		out = append(out, f)
	}
	return out
}

// GetCuckoos returns the FloIDs locally known to be children of gid.
func (s *Store) GetCuckoos(gid GlobalID) []ident.ID256 {
	rs, ok := s.realmFor(gid.Realm)
	if !ok {
		return nil
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.cuckoo.Children(gid.Flo)
}

// CuckooParent returns the Cuckoo parent of gid, if known locally.
func (s *Store) CuckooParent(gid GlobalID) (ident.ID256, bool) {
	rs, ok := s.realmFor(gid.Realm)
	if !ok {
		return ident.ID256{}, false
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.cuckoo.Parent(gid.Flo)
}

// Snapshot returns the spec.md §4.4 stats block for realm.
func (s *Store) Snapshot(realm ident.ID256) (Snapshot, bool) {
	rs, ok := s.realmFor(realm)
	if !ok {
		return Snapshot{}, false
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return s.snapshotLocked(rs), true
}

// Settle pushes every target's locally-held Flo to every currently active
// neighbour and returns once every push has been sent. There is no
// acknowledgment protocol in this fabric (spec.md's broker fixpoint is the
// only synchronization primitive upper layers get), so "visible in
// neighbours" is approximated as "handed to the transport for every active
// peer" rather than awaiting a neighbour-side confirmation.
func (s *Store) Settle(targets []GlobalID) error {
	if s.router == nil {
		return nil
	}
	peers := s.router.ActiveNodes()
	for _, target := range targets {
		rs, ok := s.realmFor(target.Realm)
		if !ok {
			continue
		}
		rs.mu.RLock()
		f, has := rs.flos[target.Flo]
		rs.mu.RUnlock()
		if !has {
			continue
		}
		payload, err := encodeMessage(Message{Kind: MsgSyncPush, Realm: target.Realm, FloID: f.ID, Flo: f})
		if err != nil {
			return err
		}
		for _, peer := range peers {
			if err := s.router.RouteDirect(s.self, ident.ID256{}, peer, payload); err != nil {
				return err
			}
		}
	}
	return nil
}
