// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplitSmallMessageIsSinglePacket(t *testing.T) {
	require := require.New(t)

	packets, err := Split([]byte("hello"))
	require.NoError(err)
	require.Len(packets, 1)
	require.Equal(0, packets[0].Total)
}

func TestSplitLargeMessageFragments(t *testing.T) {
	require := require.New(t)

	msg := bytes.Repeat([]byte("x"), MaxFragmentSize*3+17)
	packets, err := Split(msg)
	require.NoError(err)
	require.Len(packets, 4)
	for i, p := range packets {
		require.Equal(4, p.Total)
		require.Equal(i, p.Part)
		require.False(p.ID.IsEmpty(), "fragmented packets must share a non-zero id")
		require.Equal(packets[0].ID, p.ID)
	}
}

func TestCollectorReassemblesOutOfOrder(t *testing.T) {
	require := require.New(t)

	msg := bytes.Repeat([]byte("y"), MaxFragmentSize*2+5)
	packets, err := Split(msg)
	require.NoError(err)
	require.Len(packets, 3)

	c := NewPacketCollector(time.Minute)
	now := time.Unix(0, 0)

	_, done := c.Add(packets[2], now)
	require.False(done)
	_, done = c.Add(packets[0], now)
	require.False(done)
	out, done := c.Add(packets[1], now)
	require.True(done)
	require.Equal(msg, out)
	require.Equal(0, c.Pending())
}

func TestCollectorSweepsStaleMessages(t *testing.T) {
	require := require.New(t)

	msg := bytes.Repeat([]byte("z"), MaxFragmentSize*2+1)
	packets, err := Split(msg)
	require.NoError(err)

	c := NewPacketCollector(10 * time.Second)
	start := time.Unix(0, 0)
	_, done := c.Add(packets[0], start)
	require.False(done)
	require.Equal(1, c.Pending())

	dropped := c.Sweep(start.Add(20 * time.Second))
	require.Equal(1, dropped)
	require.Equal(0, c.Pending())
}

func TestCollectorZeroTTLNeverSweeps(t *testing.T) {
	require := require.New(t)

	c := NewPacketCollector(0)
	packets, err := Split(bytes.Repeat([]byte("w"), MaxFragmentSize+1))
	require.NoError(err)
	c.Add(packets[0], time.Unix(0, 0))

	dropped := c.Sweep(time.Unix(1<<40, 0))
	require.Equal(0, dropped)
}
