// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/flo/ident"
)

type fakeSignaller struct {
	published []SignalMessage
}

func (f *fakeSignaller) Publish(msg SignalMessage) error {
	f.published = append(f.published, msg)
	return nil
}

func TestSendQueuesWhenNoChannelOpen(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	nc := New(peer, &fakeSignaller{}, DefaultConfig(), nil)

	packets, err := nc.Send([]byte("hello"))
	require.NoError(err)
	require.Nil(packets, "with no open channel, Send must queue rather than return packets to transmit")
	require.Equal(OfferSent, nc.State(Outgoing))
}

func TestSendReturnsPacketsWhenChannelOpen(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	nc := New(peer, &fakeSignaller{}, DefaultConfig(), nil)

	_, _, err := nc.HandleChannelEvent(Outgoing, ChannelEvent{State: ChannelOpen}, time.Unix(0, 0))
	require.NoError(err)

	packets, err := nc.Send([]byte("hello"))
	require.NoError(err)
	require.Len(packets, 1)
}

func TestHandleChannelEventReassemblesInboundData(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	nc := New(peer, &fakeSignaller{}, DefaultConfig(), nil)

	p := Packet{Data: []byte("world")}
	raw, err := encodePacket(p)
	require.NoError(err)

	msgs, _, err := nc.HandleChannelEvent(Incoming, ChannelEvent{Data: raw}, time.Unix(0, 0))
	require.NoError(err)
	require.Len(msgs, 1)
	require.Equal([]byte("world"), msgs[0])
}

func TestHandleChannelEventOpenTransitionsToConnected(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	nc := New(peer, &fakeSignaller{}, DefaultConfig(), nil)

	_, _, err := nc.HandleChannelEvent(Incoming, ChannelEvent{State: ChannelOpen}, time.Unix(0, 0))
	require.NoError(err)
	require.Equal(Connected, nc.State(Incoming))
}

func TestSendQueueFlushesWhenChannelOpens(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	nc := New(peer, &fakeSignaller{}, DefaultConfig(), nil)

	packets, err := nc.Send([]byte("hello"))
	require.NoError(err)
	require.Nil(packets, "with no open channel, Send must queue rather than return packets to transmit")

	_, flushed, err := nc.HandleChannelEvent(Outgoing, ChannelEvent{State: ChannelOpen}, time.Unix(0, 0))
	require.NoError(err)
	require.Len(flushed, 1, "queued packets must be retried once a channel opens")
	require.Equal([]byte("hello"), flushed[0].Data)

	_, flushedAgain, err := nc.HandleChannelEvent(Incoming, ChannelEvent{State: ChannelOpen}, time.Unix(0, 0))
	require.NoError(err)
	require.Empty(flushedAgain, "a queue already flushed must not be replayed on a second channel open")
}

func TestSweepStaleFragmentsDropsBothDirections(t *testing.T) {
	require := require.New(t)

	peer, _ := ident.Random()
	cfg, err := NewConfigBuilder().WithFragmentTTL(5 * time.Second).Build()
	require.NoError(err)
	nc := New(peer, &fakeSignaller{}, cfg, nil)

	big := make([]byte, MaxFragmentSize*2+1)
	packets, err := Split(big)
	require.NoError(err)
	raw, err := encodePacket(packets[0])
	require.NoError(err)

	start := time.Unix(0, 0)
	_, _, err = nc.HandleChannelEvent(Incoming, ChannelEvent{Data: raw}, start)
	require.NoError(err)
	_, _, err = nc.HandleChannelEvent(Outgoing, ChannelEvent{Data: raw}, start)
	require.NoError(err)

	dropped := nc.SweepStaleFragments(start.Add(time.Minute))
	require.Equal(2, dropped)
}
