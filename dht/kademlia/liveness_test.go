// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/ident"
)

type fakePinger struct {
	alive map[ident.ID256]bool
}

func (f *fakePinger) Ping(peer ident.ID256) bool {
	return f.alive[peer]
}

func distancePeer(self ident.ID256, byte0 byte) ident.ID256 {
	var d ident.ID256
	d[0] = byte0
	return ident.XORDistance(self, d)
}

func TestAdmitAllowsWhenBucketNotFull(t *testing.T) {
	require := require.New(t)

	self, _ := ident.Random()
	table := NewTable(self, 2)
	liveness := NewLiveness(table, &fakePinger{alive: map[ident.ID256]bool{}}, DefaultLivenessConfig(), nil)

	peer := distancePeer(self, 0x80)
	require.True(liveness.Admit(peer, time.Unix(0, 0)))
}

func TestAdmitRejectsWhenOldestStillAlive(t *testing.T) {
	require := require.New(t)

	self, _ := ident.Random()
	table := NewTable(self, 1)
	oldest := distancePeer(self, 0x80)
	candidate := distancePeer(self, 0x81)

	pinger := &fakePinger{alive: map[ident.ID256]bool{oldest: true}}
	liveness := NewLiveness(table, pinger, DefaultLivenessConfig(), nil)

	require.True(liveness.Admit(oldest, time.Unix(0, 0)))
	require.False(liveness.Admit(candidate, time.Unix(1, 0)))
	require.Equal([]ident.ID256{oldest}, table.Closest(self, 5))
}

func TestAdmitEvictsAfterThresholdFailures(t *testing.T) {
	require := require.New(t)

	self, _ := ident.Random()
	table := NewTable(self, 1)
	oldest := distancePeer(self, 0x80)
	candidate := distancePeer(self, 0x81)

	pinger := &fakePinger{alive: map[ident.ID256]bool{}}
	cfg := LivenessConfig{Threshold: 2, RecheckInterval: time.Second}
	liveness := NewLiveness(table, pinger, cfg, nil)

	require.True(liveness.Admit(oldest, time.Unix(0, 0)))
	require.False(liveness.Admit(candidate, time.Unix(1, 0)), "first failure must not evict yet")
	require.True(liveness.Admit(candidate, time.Unix(2, 0)), "second consecutive failure must evict")
	require.Equal([]ident.ID256{candidate}, table.Closest(self, 5))
}
