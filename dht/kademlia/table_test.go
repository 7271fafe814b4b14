// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/ident"
)

// peerAtDistance returns a peer whose XOR distance from self is exactly d,
// letting tests place peers into a specific, predictable bucket.
func peerAtDistance(self ident.ID256, d ident.ID256) ident.ID256 {
	return ident.XORDistance(self, d)
}

func TestObserveAddsWhileBucketHasRoom(t *testing.T) {
	require := require.New(t)

	self, err := ident.Random()
	require.NoError(err)
	table := NewTable(self, 2)

	var d ident.ID256
	d[0] = 0x80 // leading zero count 0
	peer := peerAtDistance(self, d)

	_, full := table.Observe(peer, time.Unix(0, 0))
	require.False(full)
	require.Equal(1, table.Len())
}

func TestObserveIgnoresSelf(t *testing.T) {
	require := require.New(t)
	self, _ := ident.Random()
	table := NewTable(self, 5)

	_, full := table.Observe(self, time.Unix(0, 0))
	require.False(full)
	require.Equal(0, table.Len())
}

func TestClosestOrdersByXORDistance(t *testing.T) {
	require := require.New(t)

	self, _ := ident.Random()
	table := NewTable(self, DefaultBucketSize)

	var dNear, dFar ident.ID256
	dNear[31] = 0x01
	dFar[0] = 0x80

	near := peerAtDistance(self, dNear)
	far := peerAtDistance(self, dFar)

	table.Observe(far, time.Unix(0, 0))
	table.Observe(near, time.Unix(0, 0))

	closest := table.Closest(self, 1)
	require.Equal([]ident.ID256{near}, closest)
}

func TestEvictAndAdmitReplacesStale(t *testing.T) {
	require := require.New(t)

	self, _ := ident.Random()
	table := NewTable(self, 1)

	var dA, dB ident.ID256
	dA[0] = 0x80
	dB[0] = 0x81
	a := peerAtDistance(self, dA)
	b := peerAtDistance(self, dB)

	table.Observe(a, time.Unix(0, 0))
	_, full := table.Observe(b, time.Unix(1, 0))
	require.True(full, "single-slot bucket must report full when both peers share a bucket")

	table.EvictAndAdmit(a, b, time.Unix(2, 0))
	require.Equal(1, table.Len())
	require.Equal([]ident.ID256{b}, table.Closest(self, 5))
}
