// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"sort"
	"sync"
	"time"

	"github.com/luxfi/flo/ident"
)

// bucketCount is one per possible leading-zero count of an XOR distance
// over a 256-bit identifier.
const bucketCount = ident.Len * 8

// Table is a Kademlia routing table centered on a local node id: 256
// k-buckets indexed by XOR-distance leading-zero count, each holding up to
// BucketSize live peers.
type Table struct {
	self       ident.ID256
	bucketSize int

	mu      sync.RWMutex
	buckets [bucketCount]*bucket
}

// NewTable returns an empty Table centered on self, with bucketSize peers
// retained per bucket (DefaultBucketSize if bucketSize <= 0).
func NewTable(self ident.ID256, bucketSize int) *Table {
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}
	t := &Table{self: self, bucketSize: bucketSize}
	for i := range t.buckets {
		t.buckets[i] = newBucket(bucketSize)
	}
	return t
}

// Self returns the node id this table is centered on.
func (t *Table) Self() ident.ID256 {
	return t.self
}

// Observe records that peer was seen alive at now. If peer's bucket is
// full, PendingEviction reports the peer that must be pinged before peer
// can be admitted; Observe itself never evicts.
func (t *Table) Observe(peer ident.ID256, now time.Time) (pendingEviction Peer, full bool) {
	if peer == t.self {
		return Peer{}, false
	}
	idx := ident.BucketIndex(t.self, peer)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets[idx].touch(peer, now)
}

// EvictAndAdmit removes stale from peer's bucket and admits replacement,
// the caller's response to a failed ping of the peer PendingEviction named.
func (t *Table) EvictAndAdmit(stale ident.ID256, replacement ident.ID256, now time.Time) {
	idx := ident.BucketIndex(t.self, stale)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets[idx].remove(stale)
	t.buckets[idx].touch(replacement, now)
}

// Remove deletes peer from the table outright, for example after a fatal
// connection error outside the ping/evict cycle.
func (t *Table) Remove(peer ident.ID256) bool {
	idx := ident.BucketIndex(t.self, peer)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets[idx].remove(peer)
}

// Closest returns up to n peers in the table ordered by ascending XOR
// distance to target, the core primitive both value-based storage routing
// and iterative node lookup are built from.
func (t *Table) Closest(target ident.ID256, n int) []ident.ID256 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var all []ident.ID256
	for _, b := range t.buckets {
		for _, p := range b.list() {
			all = append(all, p.ID)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return ident.Less(target, all[i], all[j])
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// BucketPeers returns every peer sharing bucket index idx with self.
func (t *Table) BucketPeers(idx int) []ident.ID256 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx < 0 || idx >= bucketCount {
		return nil
	}
	peers := t.buckets[idx].list()
	out := make([]ident.ID256, len(peers))
	for i, p := range peers {
		out[i] = p.ID
	}
	return out
}

// Contains reports whether peer currently occupies a slot in the table.
func (t *Table) Contains(peer ident.ID256) bool {
	idx := ident.BucketIndex(t.self, peer)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.buckets[idx].list() {
		if p.ID == peer {
			return true
		}
	}
	return false
}

// OldestIn returns the least-recently-seen peer in the bucket that would
// hold candidate, the peer a liveness-check loop should ping first.
func (t *Table) OldestIn(candidate ident.ID256) (Peer, bool) {
	idx := ident.BucketIndex(t.self, candidate)

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buckets[idx].oldest()
}

// Len returns the total number of peers across every bucket.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, b := range t.buckets {
		n += b.len()
	}
	return n
}
