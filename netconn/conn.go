// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netconn

import (
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/flo/ident"
	nolog "github.com/luxfi/flo/log"
)

// direction holds the signalling state for one side (incoming or
// outgoing) of a NodeConnection.
type direction struct {
	state     SignallingState
	channel   ChannelState
	collector *PacketCollector
}

// NodeConnection manages the dual incoming/outgoing data channels toward a
// single remote peer. Sends prefer whichever channel is already open;
// fire-and-forget semantics mean a send with neither channel open is
// queued in pending and flushed once either channel comes up, never
// blocked on (spec.md §4.2 send policy step 3 and the failure-semantics
// requirement that the queued-but-unsent buffer is retried on any future
// open channel).
type NodeConnection struct {
	log    log.Logger
	peer   ident.ID256
	signal Signaller
	cfg    Config

	mu      sync.Mutex
	dir     [2]*direction
	pending []Packet
}

// New creates a NodeConnection toward peer. signal is used to publish
// SignalMessages this connection originates while bringing a direction up.
func New(peer ident.ID256, signal Signaller, cfg Config, logger log.Logger) *NodeConnection {
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	nc := &NodeConnection{peer: peer, signal: signal, cfg: cfg, log: logger}
	for d := range nc.dir {
		nc.dir[d] = &direction{collector: NewPacketCollector(cfg.FragmentTTL)}
	}
	return nc
}

// Send transmits msg over whichever direction already has an open data
// channel, preferring Outgoing. If neither is open yet, msg is queued in
// pending (full Packet framing preserved) and an Outgoing setup is kicked
// off; the caller learns of it once a channel opens, via
// HandleChannelEvent's flushed return value.
func (nc *NodeConnection) Send(msg []byte) ([]Packet, error) {
	packets, err := Split(msg)
	if err != nil {
		return nil, err
	}

	nc.mu.Lock()
	defer nc.mu.Unlock()

	for _, d := range []Direction{Outgoing, Incoming} {
		dir := nc.dir[d]
		if dir.channel == ChannelOpen {
			return packets, nil
		}
	}

	nc.pending = append(nc.pending, packets...)
	out := nc.dir[Outgoing]
	if out.state == Idle {
		out.state = OfferSent
	}
	return nil, nil
}

// HandleChannelEvent applies a low-level transport event (open, close, or
// inbound data) for one direction, returning any fully reassembled
// inbound messages it completed and, on a transition to ChannelOpen, any
// Packets that were queued while no channel was open and must now be
// sent over this direction (spec.md §4.2: "the queued-but-unsent buffer
// is retained and retried on any future open channel").
func (nc *NodeConnection) HandleChannelEvent(dir Direction, ev ChannelEvent, now time.Time) (inbound [][]byte, flushed []Packet, err error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	d := nc.dir[dir]
	switch {
	case ev.State == ChannelOpen && len(ev.Data) == 0:
		d.channel = ChannelOpen
		d.state = Connected
		flushed = nc.pending
		nc.pending = nil
		return nil, flushed, nil
	case ev.State == ChannelClosed && len(ev.Data) == 0:
		d.channel = ChannelClosed
		if d.state != Closed {
			d.state = Closed
		}
		return nil, nil, nil
	default:
		if len(ev.Data) == 0 {
			return nil, nil, nil
		}
		var out [][]byte
		var p Packet
		if decErr := decodePacket(ev.Data, &p); decErr != nil {
			if nc.log != nil {
				nc.log.Debug("dropping malformed packet", log.Err(decErr))
			}
			return nil, nil, nil
		}
		if msg, done := d.collector.Add(p, now); done {
			out = append(out, msg)
		}
		return out, nil, nil
	}
}

// Setup advances dir's signalling state machine on receipt of sig, and
// returns the SignalMessage (if any) this node should now publish in
// response.
func (nc *NodeConnection) Setup(dir Direction, sig SignalMessage) (*SignalMessage, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	d := nc.dir[dir]
	var next SignallingState
	switch sig.Kind {
	case SignalOffer:
		next = IceExchange
	case SignalAnswer:
		next = IceExchange
	case SignalICECandidate:
		next = IceExchange
	default:
		next = d.state
	}
	if next != d.state {
		if !CanTransition(d.state, next) {
			return nil, ErrInvalidTransition{From: d.state, To: next}
		}
		d.state = next
	}
	return nil, nil
}

// State returns the current SignallingState of one direction.
func (nc *NodeConnection) State(dir Direction) SignallingState {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.dir[dir].state
}

// SweepStaleFragments ages out any in-flight fragmented messages on either
// direction older than the connection's FragmentTTL.
func (nc *NodeConnection) SweepStaleFragments(now time.Time) int {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.dir[Incoming].collector.Sweep(now) + nc.dir[Outgoing].collector.Sweep(now)
}
