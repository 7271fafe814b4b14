// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kademlia implements the k-bucket routing table, liveness
// tracking and proximity-biased lookup primitives the fabric's DHT is
// built on.
package kademlia

import (
	"time"

	"github.com/luxfi/flo/ident"
)

// DefaultBucketSize is the classic Kademlia k parameter: how many live
// peers a single bucket retains before new entries must contend with the
// least-recently-seen member for a slot.
const DefaultBucketSize = 20

// Peer is one routing table entry: a known node's identity and the last
// time it was confirmed reachable.
type Peer struct {
	ID       ident.ID256
	LastSeen time.Time
}

// bucket holds up to size live Peers, ordered least-recently-seen first so
// the classic Kademlia "ping the oldest, evict only on failure" eviction
// policy can be applied in O(1) at the front.
type bucket struct {
	size  int
	peers []Peer
}

func newBucket(size int) *bucket {
	return &bucket{size: size}
}

// indexOf returns the slice index of id, or -1.
func (b *bucket) indexOf(id ident.ID256) int {
	for i, p := range b.peers {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// touch moves id to the most-recently-seen end with the given timestamp,
// inserting it if the bucket has room. If the bucket is full and id is not
// already in it, id is not inserted and touch returns the bucket's oldest
// Peer (left in place) with hadToEvict=true; otherwise hadToEvict is false.
func (b *bucket) touch(id ident.ID256, now time.Time) (evicted Peer, hadToEvict bool) {
	if idx := b.indexOf(id); idx >= 0 {
		b.peers = append(b.peers[:idx], b.peers[idx+1:]...)
		b.peers = append(b.peers, Peer{ID: id, LastSeen: now})
		return Peer{}, false
	}
	if len(b.peers) < b.size {
		b.peers = append(b.peers, Peer{ID: id, LastSeen: now})
		return Peer{}, false
	}
	// Bucket full: the caller must ping the least-recently-seen peer
	// before an eviction is justified. oldest is reported but NOT removed
	// here; Remove must be called explicitly once the ping fails.
	return b.peers[0], true
}

// oldest returns the least-recently-seen Peer in the bucket, or ok=false
// if the bucket is empty.
func (b *bucket) oldest() (Peer, bool) {
	if len(b.peers) == 0 {
		return Peer{}, false
	}
	return b.peers[0], true
}

// remove deletes id from the bucket if present.
func (b *bucket) remove(id ident.ID256) bool {
	idx := b.indexOf(id)
	if idx < 0 {
		return false
	}
	b.peers = append(b.peers[:idx], b.peers[idx+1:]...)
	return true
}

// list returns a copy of every Peer currently in the bucket.
func (b *bucket) list() []Peer {
	out := make([]Peer, len(b.peers))
	copy(out, b.peers)
	return out
}

func (b *bucket) len() int {
	return len(b.peers)
}
