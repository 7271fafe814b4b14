// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config assembles the node-wide configuration record spec.md §6
// declares: a DHTConfig (which realms to subscribe, which Flos this node
// owns, the default fetch timeout), a KademliaConfig (bucket size and ping
// cadence), and a per-realm RealmConfig (storage budget). Environment and
// CLI parsing are out of scope (spec.md §1); this package only builds the
// in-memory record a caller's own wiring passes to dht/kademlia and
// dht/storage.
package config

import (
	"fmt"
	"time"

	"github.com/luxfi/flo/ident"
)

// DHTConfig parameterizes one node's participation in the DHT: the realms
// it subscribes to, the Flos it considers itself the authoritative owner
// of (exempt from eviction), and how long an unqualified get_flo waits
// before timing out.
type DHTConfig struct {
	Realms    []ident.ID256
	Owned     []ident.ID256
	TimeoutMS uint32
}

// KademliaConfig tunes the k-bucket routing table and its ping loop.
type KademliaConfig struct {
	K            int
	PingInterval time.Duration
	PingTimeout  time.Duration
}

// RealmConfig bounds how much local storage a single realm may consume
// and the largest single Flo it will admit, per spec.md §3.
type RealmConfig struct {
	MaxSpace   uint64
	MaxFloSize uint32
}

// Config is the complete, validated node configuration: Kademlia routing
// parameters, DHT subscription/ownership, and a RealmConfig per
// subscribed realm.
type Config struct {
	DHT      DHTConfig
	Kademlia KademliaConfig
	Realms   map[ident.ID256]RealmConfig
}

// RealmConfigFor returns the budget configured for realm, and whether one
// was set (an unsubscribed realm reports ok=false).
func (c Config) RealmConfigFor(realm ident.ID256) (RealmConfig, bool) {
	rc, ok := c.Realms[realm]
	return rc, ok
}

// Preset names a named environment size, the way the teacher's
// config.NetworkType selects Mainnet/Testnet/Local.
type Preset string

const (
	// Solo sizes a single simulated node talking to itself: a tiny
	// bucket, fast pings, a generous per-realm budget since there is no
	// real contention.
	Solo Preset = "solo"
	// Cluster sizes a small integration-test cluster of real peers.
	Cluster Preset = "cluster"
	// Public sizes a production-scale realm in the open overlay: the
	// standard Kademlia k=20, conservative ping cadence, a tight
	// per-realm budget so one realm cannot starve its neighbours.
	Public Preset = "public"
)

func presetKademlia(p Preset) KademliaConfig {
	switch p {
	case Solo:
		return KademliaConfig{K: 4, PingInterval: time.Second, PingTimeout: 4}
	case Cluster:
		return KademliaConfig{K: 8, PingInterval: 2 * time.Second, PingTimeout: 6}
	case Public:
		return KademliaConfig{K: 20, PingInterval: 10 * time.Second, PingTimeout: 8}
	default:
		return KademliaConfig{}
	}
}

func presetRealm(p Preset) RealmConfig {
	switch p {
	case Solo:
		return RealmConfig{MaxSpace: 16 << 20, MaxFloSize: 1 << 20}
	case Cluster:
		return RealmConfig{MaxSpace: 64 << 20, MaxFloSize: 1 << 20}
	case Public:
		return RealmConfig{MaxSpace: 8 << 20, MaxFloSize: 256 << 10}
	default:
		return RealmConfig{}
	}
}

// Builder assembles a Config field by field, accumulating the first
// validation error so calls can be chained without intermediate checks,
// following the teacher's config.Builder (NewBuilder().WithX().Build())
// shape.
type Builder struct {
	cfg    Config
	preset Preset
	err    error
}

// NewBuilder starts from the Cluster preset, the teacher's own default
// when no explicit FromPreset call is made.
func NewBuilder() *Builder {
	b := &Builder{preset: Cluster}
	b.cfg = Config{
		Kademlia: presetKademlia(Cluster),
		Realms:   make(map[ident.ID256]RealmConfig),
	}
	return b
}

// FromPreset resets the Kademlia defaults (and the defaults new WithRealm
// calls fall back to) to one of Solo, Cluster or Public. Realms already
// added with WithRealm keep their explicit settings.
func (b *Builder) FromPreset(p Preset) *Builder {
	if b.err != nil {
		return b
	}
	switch p {
	case Solo, Cluster, Public:
		b.preset = p
		b.cfg.Kademlia = presetKademlia(p)
	default:
		b.err = fmt.Errorf("config: unknown preset %q", p)
	}
	return b
}

// WithKademlia overrides the bucket size and ping cadence.
func (b *Builder) WithKademlia(k int, pingInterval, pingTimeout time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if k <= 0 {
		b.err = fmt.Errorf("config: kademlia k must be positive, got %d", k)
		return b
	}
	if pingInterval <= 0 || pingTimeout <= 0 {
		b.err = fmt.Errorf("config: ping interval and timeout must be positive")
		return b
	}
	b.cfg.Kademlia = KademliaConfig{K: k, PingInterval: pingInterval, PingTimeout: pingTimeout}
	return b
}

// WithTimeout sets the default get_flo_timeout deadline, in milliseconds.
func (b *Builder) WithTimeout(ms uint32) *Builder {
	if b.err != nil {
		return b
	}
	if ms == 0 {
		b.err = fmt.Errorf("config: timeout_ms must be positive")
		return b
	}
	b.cfg.DHT.TimeoutMS = ms
	return b
}

// WithOwned marks ids as Flos this node owns outright, exempting them from
// value-score eviction in dht/storage.
func (b *Builder) WithOwned(ids ...ident.ID256) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.DHT.Owned = append(b.cfg.DHT.Owned, ids...)
	return b
}

// WithRealm subscribes realm with an explicit budget, overriding the
// active preset's default for that realm.
func (b *Builder) WithRealm(realm ident.ID256, maxSpace uint64, maxFloSize uint32) *Builder {
	if b.err != nil {
		return b
	}
	if maxSpace == 0 || maxFloSize == 0 {
		b.err = fmt.Errorf("config: realm %s budget must be positive", realm)
		return b
	}
	if uint64(maxFloSize) > maxSpace {
		b.err = fmt.Errorf("config: realm %s max_flo_size %d exceeds max_space %d", realm, maxFloSize, maxSpace)
		return b
	}
	b.cfg.DHT.Realms = append(b.cfg.DHT.Realms, realm)
	b.cfg.Realms[realm] = RealmConfig{MaxSpace: maxSpace, MaxFloSize: maxFloSize}
	return b
}

// WithRealmDefault subscribes realm using the active preset's default
// budget, for callers that don't need a bespoke size.
func (b *Builder) WithRealmDefault(realm ident.ID256) *Builder {
	if b.err != nil {
		return b
	}
	rc := presetRealm(b.preset)
	return b.WithRealm(realm, rc.MaxSpace, rc.MaxFloSize)
}

// Build returns the assembled Config, or the first error encountered.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if b.cfg.DHT.TimeoutMS == 0 {
		b.cfg.DHT.TimeoutMS = 5000
	}
	return b.cfg, nil
}
