// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/flo/ident"
)

// Pinger sends a liveness probe to peer and reports whether it answered
// before the caller's own timeout. The concrete implementation is
// whatever transport (netconn.NodeConnection, typically) the caller wires
// in; this package only drives the ping/evict decision.
type Pinger interface {
	Ping(peer ident.ID256) bool
}

// LivenessConfig tunes how aggressively a stale routing table entry is
// penalized before eviction, mirroring the teacher's benchlist threshold
// and duration knobs.
type LivenessConfig struct {
	// Threshold is how many consecutive failed pings a peer tolerates
	// before it is evicted from the table.
	Threshold int
	// RecheckInterval is a re-probe period carried for callers that
	// schedule their own pings; Liveness itself does not read it.
	RecheckInterval time.Duration
}

// DefaultLivenessConfig mirrors the teacher benchlist's conservative
// defaults: three strikes, rechecked every thirty seconds.
func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{Threshold: 3, RecheckInterval: 30 * time.Second}
}

// Liveness drives the Kademlia ping-oldest-on-full-bucket eviction policy
// against a Table: when a bucket is full and a new peer wants in, the
// table's oldest member is pinged; if it fails Threshold times running,
// it is evicted and the new peer takes its place, otherwise the new peer
// is dropped and the oldest member's position is preserved.
type Liveness struct {
	table  *Table
	pinger Pinger
	cfg    LivenessConfig
	log    log.Logger

	mu       sync.Mutex
	failures map[ident.ID256]int
}

// NewLiveness wires a Liveness checker to table using pinger to probe
// candidates for eviction.
func NewLiveness(table *Table, pinger Pinger, cfg LivenessConfig, logger log.Logger) *Liveness {
	return &Liveness{
		table:    table,
		pinger:   pinger,
		cfg:      cfg,
		log:      logger,
		failures: make(map[ident.ID256]int),
	}
}

// Admit attempts to record candidate as seen in the table at now. If its
// bucket is full, the bucket's oldest member is pinged; a live response
// clears the oldest member's failure count and keeps it in place,
// while Threshold consecutive failures evicts it and admits candidate.
func (l *Liveness) Admit(candidate ident.ID256, now time.Time) bool {
	oldest, full := l.table.Observe(candidate, now)
	if !full {
		return true
	}

	if l.pinger.Ping(oldest.ID) {
		l.mu.Lock()
		delete(l.failures, oldest.ID)
		l.mu.Unlock()
		if l.log != nil {
			l.log.Debug("bucket full, oldest peer still alive, dropping candidate",
				log.String("oldest", oldest.ID.String()),
				log.String("candidate", candidate.String()))
		}
		return false
	}

	l.mu.Lock()
	l.failures[oldest.ID]++
	failed := l.failures[oldest.ID]
	l.mu.Unlock()

	if failed < l.cfg.Threshold {
		return false
	}

	l.mu.Lock()
	delete(l.failures, oldest.ID)
	l.mu.Unlock()
	l.table.EvictAndAdmit(oldest.ID, candidate, now)
	if l.log != nil {
		l.log.Debug("evicted unresponsive peer",
			log.String("evicted", oldest.ID.String()),
			log.Int("failures", failed))
	}
	return true
}

// ClearFailures resets the recorded failure count for peer, for use after
// any successful exchange with it outside of Admit's own ping path.
func (l *Liveness) ClearFailures(peer ident.ID256) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, peer)
}

// MissRate returns the fraction of currently-tracked peers that have at
// least one recorded ping failure pending against Threshold, a coarse
// signal for HealthCheck of how much of the table is currently flaky.
func (l *Liveness) MissRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	tracked := l.table.Len()
	if tracked == 0 {
		return 0
	}
	flaky := 0
	for _, n := range l.failures {
		if n > 0 {
			flaky++
		}
	}
	return float64(flaky) / float64(tracked)
}
