// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/luxfi/flo/ident"
	"github.com/luxfi/flo/metrics"
)

// realmStats holds the spec.md §4.4 "stats: {flos, bytes, hits, misses,
// evictions}" counters for a single realm, backed by the in-tree metrics
// package's Registry.
type realmStats struct {
	hits      metrics.Counter
	misses    metrics.Counter
	evictions metrics.Counter
	usedSpace metrics.Gauge
}

func newRealmStats(reg metrics.Registry, realm ident.ID256) realmStats {
	prefix := "realm_" + realm.String()[:8]
	return realmStats{
		hits:      reg.NewCounter(prefix + "_hits"),
		misses:    reg.NewCounter(prefix + "_misses"),
		evictions: reg.NewCounter(prefix + "_evictions"),
		usedSpace: reg.NewGauge(prefix + "_used_space"),
	}
}

// Snapshot returns a point-in-time view of a realm's counters, the value
// get_flos-adjacent introspection calls report to callers and tests.
type Snapshot struct {
	Flos      int
	Bytes     uint64
	Hits      int64
	Misses    int64
	Evictions int64
}

func (s *Store) snapshotLocked(r *realmState) Snapshot {
	return Snapshot{
		Flos:      len(r.flos),
		Bytes:     r.usage.Bytes,
		Hits:      r.stats.hits.Read(),
		Misses:    r.stats.misses.Read(),
		Evictions: r.stats.evictions.Read(),
	}
}
